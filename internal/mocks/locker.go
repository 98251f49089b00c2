package mocks

import (
	"context"
	"sync/atomic"
)

// MockLocker implements task.Locker for testing
type MockLocker struct {
	TryLockFn func(ctx context.Context) (func(), bool, error)

	// Held makes TryLock report the lock as taken elsewhere.
	Held         bool
	DefaultError error

	releases atomic.Int32
}

// TryLock implements the Locker.TryLock method
func (m *MockLocker) TryLock(ctx context.Context) (func(), bool, error) {
	if m.TryLockFn != nil {
		return m.TryLockFn(ctx)
	}
	if m.DefaultError != nil || m.Held {
		return nil, false, m.DefaultError
	}
	return func() { m.releases.Add(1) }, true, nil
}

// Releases returns how many times a granted lock was released.
func (m *MockLocker) Releases() int {
	return int(m.releases.Load())
}
