package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/store"
)

// PostgresAssignmentStore implements store.AssignmentStore using PostgreSQL.
type PostgresAssignmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAssignmentStore creates a new PostgreSQL implementation of the AssignmentStore interface.
// If logger is nil, the default logger is used.
func NewPostgresAssignmentStore(db store.DBTX, logger *slog.Logger) *PostgresAssignmentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAssignmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "assignment_store")),
	}
}

// Ensure PostgresAssignmentStore implements store.AssignmentStore
var _ store.AssignmentStore = (*PostgresAssignmentStore)(nil)

const listAssignmentDetailsQuery = `
	SELECT ta.id, ta.task_id, ta.employee_id, ta.start_date, ta.end_date,
	       ta.estimate_time, ta.progress, ta.status,
	       t.task_name, e.display_name, t.project_id, p.project_name
	FROM task_assignments ta
	JOIN tasks t ON t.id = ta.task_id
	JOIN employees e ON e.id = ta.employee_id
	LEFT JOIN projects p ON p.id = t.project_id
	ORDER BY ta.id ASC
`

// ListAssignmentDetails returns every assignment joined with its task, employee and project.
func (s *PostgresAssignmentStore) ListAssignmentDetails(
	ctx context.Context,
) ([]domain.AssignmentDetail, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, listAssignmentDetailsQuery)
	if err != nil {
		log.Error("failed to query assignment details", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task_assignment", "list", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	details := make([]domain.AssignmentDetail, 0)
	for rows.Next() {
		var (
			d           domain.AssignmentDetail
			status      string
			projectID   sql.NullInt64
			projectName sql.NullString
		)
		if err := rows.Scan(
			&d.ID,
			&d.TaskID,
			&d.EmployeeID,
			&d.StartDate,
			&d.EndDate,
			&d.EstimateHours,
			&d.Progress,
			&status,
			&d.TaskName,
			&d.EmployeeName,
			&projectID,
			&projectName,
		); err != nil {
			return nil, store.NewStoreError("task_assignment", "list", "scan failed", MapError(err))
		}

		parsed, err := domain.ParseAssignmentStatus(status)
		if err != nil {
			return nil, store.NewStoreError(
				"task_assignment",
				"list",
				fmt.Sprintf("assignment %d has an unknown status", d.ID),
				fmt.Errorf("%w: %w", store.ErrInvalidEntity, err),
			)
		}
		d.Status = parsed
		d.ProjectID = projectID.Int64
		d.ProjectName = projectName.String
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task_assignment", "list", "row iteration failed", MapError(err))
	}

	log.Debug("loaded assignment details", slog.Int("count", len(details)))
	return details, nil
}

// UpdateAssignmentStatus writes a new status for one assignment.
func (s *PostgresAssignmentStore) UpdateAssignmentStatus(
	ctx context.Context,
	id int64,
	status domain.AssignmentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %w: %q", store.ErrInvalidEntity, domain.ErrInvalidStatus, status)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE task_assignments SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update assignment status",
			slog.Int64("assignment_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return store.NewStoreError("task_assignment", "update", "status update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}

	if err := CheckRowsAffected(result, store.ErrAssignmentNotFound); err != nil {
		return err
	}
	return nil
}
