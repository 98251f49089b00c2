package domain

import (
	"fmt"
	"time"
)

// AssignmentStatus represents the scheduling state of a task assignment.
type AssignmentStatus string

// Possible assignment status values. The string values are part of the
// late-tasks message contract.
const (
	StatusPending        AssignmentStatus = "PENDING"
	StatusInProgress     AssignmentStatus = "IN_PROGRESS"
	StatusCompleted      AssignmentStatus = "COMPLETED"
	StatusBehindSchedule AssignmentStatus = "BEHIND_SCHEDULE"
)

// Valid reports whether s is one of the known statuses.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBehindSchedule:
		return true
	default:
		return false
	}
}

// ParseAssignmentStatus converts a stored or transmitted value into an
// AssignmentStatus, rejecting unknown values.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	s := AssignmentStatus(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// TaskAssignment is one employee's work on one task. The persistence layer
// owns every field; the delay classifier only ever changes Status.
type TaskAssignment struct {
	ID            int64            `json:"id"`
	TaskID        int64            `json:"task_id"`
	EmployeeID    int64            `json:"employee_id"`
	StartDate     time.Time        `json:"start_date"`
	EndDate       time.Time        `json:"end_date"`
	EstimateHours float64          `json:"estimate_time"`
	Progress      float64          `json:"progress"`
	Status        AssignmentStatus `json:"status"`
}

// AssignmentDetail is an assignment together with the names of the task,
// employee and project it belongs to, as loaded for a classifier run.
// ProjectID is zero when the task is not attached to a project.
type AssignmentDetail struct {
	TaskAssignment
	TaskName     string `json:"task_name"`
	EmployeeName string `json:"employee_name"`
	ProjectID    int64  `json:"project_id"`
	ProjectName  string `json:"project_name"`
}

// HasProject reports whether the assignment's task belongs to a project.
func (d AssignmentDetail) HasProject() bool {
	return d.ProjectID > 0
}
