package mocks

import (
	"context"

	"github.com/phrazzld/latewatch/internal/domain"
)

// MockTaskStore implements store.TaskStore for testing
type MockTaskStore struct {
	GetTaskFn               func(ctx context.Context, id int64) (*domain.Task, error)
	ListAssignmentsByTaskFn func(ctx context.Context, taskID int64) ([]domain.TaskAssignment, error)
	UpdateTaskProgressFn    func(ctx context.Context, taskID int64, progress float64) error

	// Default return values
	Task         *domain.Task
	Assignments  []domain.TaskAssignment
	DefaultError error
}

// GetTask implements the TaskStore.GetTask method
func (m *MockTaskStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}
	return m.Task, m.DefaultError
}

// ListAssignmentsByTask implements the TaskStore.ListAssignmentsByTask method
func (m *MockTaskStore) ListAssignmentsByTask(ctx context.Context, taskID int64) ([]domain.TaskAssignment, error) {
	if m.ListAssignmentsByTaskFn != nil {
		return m.ListAssignmentsByTaskFn(ctx, taskID)
	}
	return m.Assignments, m.DefaultError
}

// UpdateTaskProgress implements the TaskStore.UpdateTaskProgress method
func (m *MockTaskStore) UpdateTaskProgress(ctx context.Context, taskID int64, progress float64) error {
	if m.UpdateTaskProgressFn != nil {
		return m.UpdateTaskProgressFn(ctx, taskID, progress)
	}
	return m.DefaultError
}
