package notification

import (
	"context"
	"sync"
	"time"
)

// ThrottleState is the per-project position in the send cycle.
type ThrottleState string

const (
	// StateIdle means no successful send is recorded for the project.
	StateIdle ThrottleState = "idle"
	// StateCooling means the last send is within the throttle window.
	StateCooling ThrottleState = "cooling"
	// StateEligible means the throttle window has elapsed since the last send.
	StateEligible ThrottleState = "eligible"
)

// MayDispatch reports whether a notification can be sent in this state.
func (s ThrottleState) MayDispatch() bool {
	return s != StateCooling
}

// EvaluateThrottle computes the state for a project whose last successful send
// was at lastSent (sent is false if it never was), given the window and now.
// now - lastSent == window is eligible.
func EvaluateThrottle(lastSent time.Time, sent bool, window time.Duration, now time.Time) ThrottleState {
	if !sent {
		return StateIdle
	}
	if now.Sub(lastSent) >= window {
		return StateEligible
	}
	return StateCooling
}

// ThrottleStore records the time of each project's last successful send.
type ThrottleStore interface {
	LastSent(ctx context.Context, projectID int64) (t time.Time, ok bool, err error)
	MarkSent(ctx context.Context, projectID int64, at time.Time) error
}

// MemoryThrottleStore is a process-local ThrottleStore. Its contents are
// lost when the process exits.
type MemoryThrottleStore struct {
	mu       sync.Mutex
	lastSent map[int64]time.Time
}

// NewMemoryThrottleStore creates an empty MemoryThrottleStore.
func NewMemoryThrottleStore() *MemoryThrottleStore {
	return &MemoryThrottleStore{lastSent: make(map[int64]time.Time)}
}

var _ ThrottleStore = (*MemoryThrottleStore)(nil)

// LastSent implements ThrottleStore.
func (s *MemoryThrottleStore) LastSent(_ context.Context, projectID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastSent[projectID]
	return t, ok, nil
}

// MarkSent implements ThrottleStore.
func (s *MemoryThrottleStore) MarkSent(_ context.Context, projectID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent[projectID] = at
	return nil
}
