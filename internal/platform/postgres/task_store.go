package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/store"
)

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
// If logger is nil, the default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// GetTask retrieves a task by id.
func (s *PostgresTaskStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var (
		t         domain.Task
		projectID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_name, project_id, progress FROM tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &projectID, &t.Progress)
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	t.ProjectID = projectID.Int64
	return &t, nil
}

// ListAssignmentsByTask returns all assignments of a task ordered by id.
func (s *PostgresTaskStore) ListAssignmentsByTask(
	ctx context.Context,
	taskID int64,
) ([]domain.TaskAssignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, employee_id, start_date, end_date, estimate_time, progress, status
		FROM task_assignments
		WHERE task_id = $1
		ORDER BY id ASC
	`, taskID)
	if err != nil {
		return nil, store.NewStoreError("task_assignment", "list", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	assignments := make([]domain.TaskAssignment, 0)
	for rows.Next() {
		var (
			a      domain.TaskAssignment
			status string
		)
		if err := rows.Scan(
			&a.ID, &a.TaskID, &a.EmployeeID, &a.StartDate, &a.EndDate,
			&a.EstimateHours, &a.Progress, &status,
		); err != nil {
			return nil, store.NewStoreError("task_assignment", "list", "scan failed", MapError(err))
		}
		a.Status = domain.AssignmentStatus(status)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task_assignment", "list", "row iteration failed", MapError(err))
	}
	return assignments, nil
}

// UpdateTaskProgress stores the recomputed progress of a task.
func (s *PostgresTaskStore) UpdateTaskProgress(ctx context.Context, taskID int64, progress float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET progress = $1 WHERE id = $2`,
		progress,
		taskID,
	)
	if err != nil {
		log.Error("failed to update task progress",
			slog.Int64("task_id", taskID),
			slog.Float64("progress", progress),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "update", "progress update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}
