package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body. Returning an error that wraps
// events.ErrMalformedMessage dead-letters the message immediately.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, body []byte) error

// Handle calls f(ctx, body).
func (f HandlerFunc) Handle(ctx context.Context, body []byte) error {
	return f(ctx, body)
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	URL                   string
	Queue                 string
	Prefetch              int
	Policy                RedeliveryPolicy
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	PublishTimeout        time.Duration
}

// Consumer reads one queue and hands each delivery to a Handler, one at a time.
type Consumer struct {
	cfg      ConsumerConfig
	handler  Handler
	dial     Dialer
	logger   *slog.Logger
	observer Observer
	state    atomic.Int32
}

// NewConsumer creates a Consumer. Call Run to start consuming.
func NewConsumer(cfg ConsumerConfig, handler Handler, opts ...Option) *Consumer {
	o := buildOptions(opts)
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 1
	}
	if cfg.Policy.MaxAttempts < 1 {
		cfg.Policy = DefaultRedeliveryPolicy()
	}
	if cfg.ReconnectInitialDelay <= 0 {
		cfg.ReconnectInitialDelay = 5 * time.Second
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectInitialDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectInitialDelay
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Consumer{
		cfg:      cfg,
		handler:  handler,
		dial:     o.dial,
		logger:   o.logger.With(slog.String("component", "consumer"), slog.String("queue", cfg.Queue)),
		observer: o.observer,
	}
}

// State reports whether the consumer currently holds a live session.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
	c.observer.SetConnected(c.cfg.Queue, s == StateConnected)
}

func (c *Consumer) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectInitialDelay
	b.MaxInterval = c.cfg.ReconnectMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run consumes until ctx is cancelled, reconnecting after every session loss.
// It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	b := c.newBackOff()

	for {
		established, err := c.session(ctx)
		c.setState(StateDisconnected)

		if ctx.Err() != nil {
			c.logger.Info("consumer stopped")
			return nil
		}
		if established {
			b.Reset()
		}

		wait := b.NextBackOff()
		c.logger.Warn("broker session lost, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("retry_in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("consumer stopped")
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection lifetime. established is true once the
// consumer was registered with the broker.
func (c *Consumer) session(ctx context.Context) (established bool, err error) {
	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueues(ch, []string{c.cfg.Queue}, c.cfg.Policy.DeadLetterSuffix); err != nil {
		return false, fmt.Errorf("declare queues: %w", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return false, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return false, fmt.Errorf("consume: %w", err)
	}

	c.setState(StateConnected)
	c.logger.Info("consumer connected", slog.Int("prefetch", c.cfg.Prefetch))

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case d, ok := <-deliveries:
			if !ok {
				return true, errDeliveriesClosed
			}
			c.handle(ctx, ch, d)
		}
	}
}

// handle processes one delivery and settles it according to the policy.
func (c *Consumer) handle(ctx context.Context, ch Channel, d amqp.Delivery) {
	attempt := attemptOf(d.Headers)
	log := c.logger.With(
		slog.String("message_id", d.MessageId),
		slog.Int("attempt", attempt))
	hctx := logger.WithRequestID(logger.WithLogger(ctx, log), d.MessageId)

	handleErr := c.handler.Handle(hctx, d.Body)
	action := c.cfg.Policy.Decide(attempt, handleErr)

	switch action {
	case ActionAck:
		c.settle(log, d, ActionAck, nil)
		c.observer.ObserveConsume(c.cfg.Queue, "ok")
	case ActionRetry:
		log.Warn("message handling failed, scheduling retry",
			slog.String("error", handleErr.Error()),
			slog.Int("max_attempts", c.cfg.Policy.MaxAttempts))
		headers := copyHeaders(d.Headers)
		headers[HeaderAttempt] = int32(attempt + 1)
		c.settle(log, d, ActionRetry, c.republish(ctx, ch, c.cfg.Queue, d, headers))
		c.observer.ObserveConsume(c.cfg.Queue, "retry")
	case ActionDeadLetter:
		log.Error("message dead-lettered",
			slog.String("error", handleErr.Error()),
			slog.String("dead_letter_queue", c.cfg.Policy.DeadLetterQueue(c.cfg.Queue)))
		headers := copyHeaders(d.Headers)
		headers[HeaderAttempt] = int32(attempt)
		headers[HeaderDeathReason] = handleErr.Error()
		headers[HeaderOrigQueue] = c.cfg.Queue
		c.settle(log, d, ActionDeadLetter,
			c.republish(ctx, ch, c.cfg.Policy.DeadLetterQueue(c.cfg.Queue), d, headers))
		c.observer.ObserveConsume(c.cfg.Queue, "dead_letter")
	}
}

func (c *Consumer) republish(ctx context.Context, ch Channel, queue string, d amqp.Delivery, headers amqp.Table) error {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PublishTimeout)
	defer cancel()

	contentType := d.ContentType
	if contentType == "" {
		contentType = contentTypeJSON
	}
	return ch.PublishWithContext(pubCtx, "", queue, false, false, amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Headers:      headers,
		Body:         d.Body,
	})
}

// settle acks the original delivery once its successor (if any) was
// published. A failed republish puts the original back on the queue.
func (c *Consumer) settle(log *slog.Logger, d amqp.Delivery, action Action, republishErr error) {
	if republishErr != nil {
		log.Error("failed to republish message, requeueing original",
			slog.String("action", action.String()),
			slog.String("error", republishErr.Error()))
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to nack delivery", slog.String("error", err.Error()))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack delivery", slog.String("error", err.Error()))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
