package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection is the subset of *amqp.Connection used by this package.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Channel is the subset of *amqp.Channel used by this package.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	IsClosed() bool
	Close() error
}

// Dialer opens a broker connection.
type Dialer func(url string) (Connection, error)

// DialAMQP dials a real broker with amqp091.
func DialAMQP(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn: conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) IsClosed() bool { return c.conn.IsClosed() }

func (c amqpConnection) Close() error { return c.conn.Close() }

// State describes whether a broker session is currently usable.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// declareQueues declares each work queue and its dead-letter queue as durable.
func declareQueues(ch Channel, queues []string, deadLetterSuffix string) error {
	for _, q := range queues {
		for _, name := range []string{q, q + deadLetterSuffix} {
			if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Observer receives broker activity for metrics.
type Observer interface {
	ObservePublish(queue, result string)
	ObserveConsume(queue, result string)
	SetConnected(queue string, connected bool)
}

type nopObserver struct{}

func (nopObserver) ObservePublish(string, string) {}
func (nopObserver) ObserveConsume(string, string) {}
func (nopObserver) SetConnected(string, bool)     {}
