package store

import (
	"context"

	"github.com/phrazzld/latewatch/internal/domain"
)

// TaskStore defines the operations used to keep a task's denormalized
// progress in sync with its assignments.
type TaskStore interface {
	// GetTask retrieves a task by id.
	// Returns ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// ListAssignmentsByTask returns all assignments of a task.
	// Returns an empty slice if the task has none.
	ListAssignmentsByTask(ctx context.Context, taskID int64) ([]domain.TaskAssignment, error)

	// UpdateTaskProgress stores the recomputed progress of a task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateTaskProgress(ctx context.Context, taskID int64, progress float64) error
}
