package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/latewatch/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// ClientConfig configures a publishing Client.
type ClientConfig struct {
	URL              string
	Queues           []string
	DeadLetterSuffix string
	PublishTimeout   time.Duration
}

// Client publishes JSON messages to durable queues. The connection and
// channel are opened on first use and cached; any publish failure drops them.
// Client is safe for concurrent use.
type Client struct {
	cfg      ClientConfig
	dial     Dialer
	logger   *slog.Logger
	observer Observer

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

// Option customizes a Client or Consumer.
type Option func(*options)

type options struct {
	dial     Dialer
	observer Observer
	logger   *slog.Logger
}

// WithDialer replaces the amqp dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dial = d }
}

// WithObserver reports broker activity to o.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{dial: DialAMQP, observer: nopObserver{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates a Client. It does not connect until the first Publish.
func NewClient(cfg ClientConfig, opts ...Option) *Client {
	o := buildOptions(opts)
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = events.Queues
	}
	return &Client{
		cfg:      cfg,
		dial:     o.dial,
		logger:   o.logger.With(slog.String("component", "broker_client")),
		observer: o.observer,
	}
}

var _ events.Publisher = (*Client)(nil)

// Publish JSON-encodes payload and sends it as a persistent message to queue.
func (c *Client) Publish(ctx context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", queue, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.channelLocked()
	if err != nil {
		c.observer.ObservePublish(queue, "unavailable")
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	pubCtx, cancel := context.WithTimeout(ctx, c.cfg.PublishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(pubCtx, "", queue, false, false, msg); err != nil {
		c.resetLocked()
		c.observer.ObservePublish(queue, "error")
		c.logger.Warn("publish failed, dropping broker session",
			slog.String("queue", queue),
			slog.String("message_id", msg.MessageId),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: publish to %s: %w", ErrUnavailable, queue, err)
	}

	c.observer.ObservePublish(queue, "ok")
	c.logger.Debug("message published",
		slog.String("queue", queue),
		slog.String("message_id", msg.MessageId),
		slog.Int("bytes", len(body)))
	return nil
}

// State reports whether the cached session is currently open.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionOpenLocked() {
		return StateConnected
	}
	return StateDisconnected
}

// Close closes the cached session, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.ch != nil {
		err = c.ch.Close()
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	c.ch, c.conn = nil, nil
	return err
}

func (c *Client) sessionOpenLocked() bool {
	return c.conn != nil && c.ch != nil && !c.conn.IsClosed() && !c.ch.IsClosed()
}

func (c *Client) channelLocked() (Channel, error) {
	if c.sessionOpenLocked() {
		return c.ch, nil
	}
	c.resetLocked()

	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueues(ch, c.cfg.Queues, c.cfg.DeadLetterSuffix); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queues: %w", err)
	}

	c.conn, c.ch = conn, ch
	c.logger.Info("broker session established", slog.Int("queues", len(c.cfg.Queues)))
	return ch, nil
}

func (c *Client) resetLocked() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.ch, c.conn = nil, nil
}
