package mocks

import (
	"context"
	"sync"
)

// PublishedMessage records one call to MockPublisher.Publish.
type PublishedMessage struct {
	Queue   string
	Payload interface{}
}

// MockPublisher implements events.Publisher for testing.
// Successful publishes are recorded and can be inspected with Messages.
type MockPublisher struct {
	PublishFn    func(ctx context.Context, queue string, payload interface{}) error
	DefaultError error

	mu       sync.Mutex
	messages []PublishedMessage
}

// Publish implements the Publisher.Publish method
func (m *MockPublisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	var err error
	if m.PublishFn != nil {
		err = m.PublishFn(ctx, queue, payload)
	} else {
		err = m.DefaultError
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PublishedMessage{Queue: queue, Payload: payload})
	return nil
}

// Messages returns the successfully published messages in order.
func (m *MockPublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.messages...)
}
