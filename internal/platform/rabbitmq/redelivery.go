package rabbitmq

import (
	"errors"

	"github.com/phrazzld/latewatch/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Header names used for redelivery bookkeeping.
const (
	HeaderAttempt     = "x-attempt"
	HeaderDeathReason = "x-death-reason"
	HeaderOrigQueue   = "x-original-queue"
)

// Action is what a consumer does with a handled delivery.
type Action int

const (
	// ActionAck acknowledges the delivery.
	ActionAck Action = iota
	// ActionRetry republishes the message with its attempt count incremented.
	ActionRetry
	// ActionDeadLetter moves the message to the dead-letter queue.
	ActionDeadLetter
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "ack"
	case ActionRetry:
		return "retry"
	case ActionDeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// RedeliveryPolicy decides how handler failures are treated.
// A message is handled at most MaxAttempts times.
type RedeliveryPolicy struct {
	MaxAttempts      int
	DeadLetterSuffix string
}

// DefaultRedeliveryPolicy returns the policy used when none is configured.
func DefaultRedeliveryPolicy() RedeliveryPolicy {
	return RedeliveryPolicy{MaxAttempts: 5, DeadLetterSuffix: ".dead-letter"}
}

// Decide maps the outcome of handling attempt number attempt (1-based) to an action.
func (p RedeliveryPolicy) Decide(attempt int, err error) Action {
	switch {
	case err == nil:
		return ActionAck
	case errors.Is(err, events.ErrMalformedMessage):
		return ActionDeadLetter
	case attempt >= p.MaxAttempts:
		return ActionDeadLetter
	default:
		return ActionRetry
	}
}

// DeadLetterQueue returns the dead-letter queue name for queue.
func (p RedeliveryPolicy) DeadLetterQueue(queue string) string {
	return queue + p.DeadLetterSuffix
}

// attemptOf reads the 1-based attempt number from delivery headers.
func attemptOf(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	var n int
	switch v := headers[HeaderAttempt].(type) {
	case int:
		n = v
	case int16:
		n = int(v)
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case uint8:
		n = int(v)
	}
	if n < 1 {
		return 1
	}
	return n
}

// copyHeaders returns a mutable copy of h.
func copyHeaders(h amqp.Table) amqp.Table {
	out := make(amqp.Table, len(h)+2)
	for k, v := range h {
		out[k] = v
	}
	return out
}
