package store

import (
	"context"

	"github.com/phrazzld/latewatch/internal/domain"
)

// AssignmentStore defines the persistence operations the delay classifier
// needs. It never creates or deletes assignments; those belong to the CRUD
// application.
type AssignmentStore interface {
	// ListAssignmentDetails returns every assignment with its task, employee
	// and project names. The order is stable (by assignment id).
	ListAssignmentDetails(ctx context.Context) ([]domain.AssignmentDetail, error)

	// UpdateAssignmentStatus writes a new status for one assignment.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	UpdateAssignmentStatus(ctx context.Context, id int64, status domain.AssignmentStatus) error
}
