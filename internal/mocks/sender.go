package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/latewatch/internal/notification"
)

// MockSender implements notification.Sender for testing
type MockSender struct {
	SendFn       func(ctx context.Context, email notification.Email) error
	DefaultError error

	mu   sync.Mutex
	sent []notification.Email
}

// Send implements the Sender.Send method. Only successful sends are recorded.
func (m *MockSender) Send(ctx context.Context, email notification.Email) error {
	var err error
	if m.SendFn != nil {
		err = m.SendFn(ctx, email)
	} else {
		err = m.DefaultError
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns the delivered emails in order.
func (m *MockSender) Sent() []notification.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Email(nil), m.sent...)
}
