package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/latewatch/internal/domain"
)

// StatusUpdate records one call to MockAssignmentStore.UpdateAssignmentStatus.
type StatusUpdate struct {
	ID     int64
	Status domain.AssignmentStatus
}

// MockAssignmentStore implements store.AssignmentStore for testing
type MockAssignmentStore struct {
	ListAssignmentDetailsFn  func(ctx context.Context) ([]domain.AssignmentDetail, error)
	UpdateAssignmentStatusFn func(ctx context.Context, id int64, status domain.AssignmentStatus) error

	// Default return values
	Details      []domain.AssignmentDetail
	DefaultError error

	mu      sync.Mutex
	updates []StatusUpdate
}

// ListAssignmentDetails implements the AssignmentStore.ListAssignmentDetails method
func (m *MockAssignmentStore) ListAssignmentDetails(ctx context.Context) ([]domain.AssignmentDetail, error) {
	if m.ListAssignmentDetailsFn != nil {
		return m.ListAssignmentDetailsFn(ctx)
	}
	return m.Details, m.DefaultError
}

// UpdateAssignmentStatus implements the AssignmentStore.UpdateAssignmentStatus method.
// Every call is recorded, including failed ones.
func (m *MockAssignmentStore) UpdateAssignmentStatus(ctx context.Context, id int64, status domain.AssignmentStatus) error {
	m.mu.Lock()
	m.updates = append(m.updates, StatusUpdate{ID: id, Status: status})
	m.mu.Unlock()

	if m.UpdateAssignmentStatusFn != nil {
		return m.UpdateAssignmentStatusFn(ctx, id, status)
	}
	return m.DefaultError
}

// Updates returns the recorded status updates in call order.
func (m *MockAssignmentStore) Updates() []StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusUpdate(nil), m.updates...)
}
