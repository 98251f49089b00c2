package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/store"
)

// ProgressService keeps a task's stored progress equal to the
// effort-weighted mean of its assignments.
type ProgressService struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewProgressService creates a ProgressService.
func NewProgressService(tasks store.TaskStore, logger *slog.Logger) (*ProgressService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "progress_service")),
	}, nil
}

// RecalculateTaskProgress recomputes and stores the progress of a task.
// Returns store.ErrTaskNotFound (wrapped) for an unknown task. The result is
// idempotent: unchanged assignments produce the same stored value.
func (s *ProgressService) RecalculateTaskProgress(ctx context.Context, taskID int64) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if taskID <= 0 {
		return 0, fmt.Errorf("%w: %w: task id %d", domain.ErrValidation, domain.ErrInvalidID, taskID)
	}

	if _, err := s.tasks.GetTask(ctx, taskID); err != nil {
		return 0, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}

	assignments, err := s.tasks.ListAssignmentsByTask(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to list assignments of task %d: %w", taskID, err)
	}

	progress := domain.WeightedProgress(assignments)
	if err := s.tasks.UpdateTaskProgress(ctx, taskID, progress); err != nil {
		return 0, fmt.Errorf("failed to update progress of task %d: %w", taskID, err)
	}

	log.Debug("task progress recalculated",
		slog.Int64("task_id", taskID),
		slog.Int("assignment_count", len(assignments)),
		slog.Float64("progress", progress))
	return progress, nil
}
