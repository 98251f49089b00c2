package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/domain/delay"
	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/store"
)

// ClassifierJobName is the scheduler name of the delay classifier.
const ClassifierJobName = "delay-classifier"

// RunReport summarizes one classifier run.
type RunReport struct {
	RunID            string    `json:"runId"`
	StartedAt        time.Time `json:"startedAt"`
	Evaluated        int       `json:"evaluated"`
	StatusChanges    int       `json:"statusChanges"`
	UpdateFailures   int       `json:"updateFailures"`
	LateAssignments  int       `json:"lateAssignments"`
	BatchesPublished int       `json:"batchesPublished"`
	PublishFailures  int       `json:"publishFailures"`
}

// ClassifierObserver receives per-run counters for metrics.
type ClassifierObserver interface {
	ObserveStatusUpdate(result string)
	AddLateAssignments(n int)
}

type nopClassifierObserver struct{}

func (nopClassifierObserver) ObserveStatusUpdate(string) {}
func (nopClassifierObserver) AddLateAssignments(int)      {}

// DelayClassifier recomputes every assignment's status and publishes late
// work grouped by project.
type DelayClassifier struct {
	assignments store.AssignmentStore
	publisher   events.Publisher
	params      delay.Params
	logger      *slog.Logger
	observer    ClassifierObserver
	now         func() time.Time
}

// ClassifierOption customizes a DelayClassifier.
type ClassifierOption func(*DelayClassifier)

// WithClassifierClock replaces time.Now, mainly for tests.
func WithClassifierClock(now func() time.Time) ClassifierOption {
	return func(c *DelayClassifier) { c.now = now }
}

// WithClassifierObserver reports status writes and lateness counts to o.
func WithClassifierObserver(o ClassifierObserver) ClassifierOption {
	return func(c *DelayClassifier) { c.observer = o }
}

// NewDelayClassifier creates a DelayClassifier.
func NewDelayClassifier(
	assignments store.AssignmentStore,
	publisher events.Publisher,
	params delay.Params,
	logger *slog.Logger,
	opts ...ClassifierOption,
) (*DelayClassifier, error) {
	if assignments == nil {
		return nil, fmt.Errorf("assignment store cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &DelayClassifier{
		assignments: assignments,
		publisher:   publisher,
		params:      params,
		logger:      logger.With(slog.String("component", "delay_classifier")),
		observer:    nopClassifierObserver{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements task.Job.
func (c *DelayClassifier) Name() string { return ClassifierJobName }

// Run implements task.Job.
func (c *DelayClassifier) Run(ctx context.Context) error {
	_, err := c.Classify(ctx)
	return err
}

// Classify evaluates all assignments at a single instant. It writes only
// statuses that changed, keeps going past individual write failures, and
// publishes one late-tasks message per project in ascending project id order.
// Assignments whose task has no project are classified but never published.
func (c *DelayClassifier) Classify(ctx context.Context) (RunReport, error) {
	now := c.now()
	report := RunReport{RunID: uuid.NewString(), StartedAt: now}
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.String("classifier_run_id", report.RunID))

	details, err := c.assignments.ListAssignmentDetails(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load assignments: %w", err)
	}

	var errs []error
	batches := make(map[int64]*events.LateTasksEvent)

	for _, d := range details {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		eval := delay.Evaluate(d.TaskAssignment, now, c.params)
		report.Evaluated++

		if eval.Status != d.Status {
			if err := c.assignments.UpdateAssignmentStatus(ctx, d.ID, eval.Status); err != nil {
				report.UpdateFailures++
				c.observer.ObserveStatusUpdate("error")
				log.Error("failed to update assignment status",
					slog.Int64("assignment_id", d.ID),
					slog.String("from", string(d.Status)),
					slog.String("to", string(eval.Status)),
					slog.String("error", err.Error()))
				errs = append(errs, fmt.Errorf("assignment %d: %w", d.ID, err))
			} else {
				report.StatusChanges++
				c.observer.ObserveStatusUpdate("ok")
				log.Debug("assignment status changed",
					slog.Int64("assignment_id", d.ID),
					slog.String("from", string(d.Status)),
					slog.String("to", string(eval.Status)),
					slog.String("reason", string(eval.Reason)))
			}
		}

		if !eval.Late {
			continue
		}
		report.LateAssignments++
		if !d.HasProject() {
			log.Debug("late assignment has no project, not published", slog.Int64("assignment_id", d.ID))
			continue
		}

		batch, ok := batches[d.ProjectID]
		if !ok {
			batch = &events.LateTasksEvent{ProjectID: d.ProjectID, ProjectName: d.ProjectName}
			batches[d.ProjectID] = batch
		}
		batch.Tasks = append(batch.Tasks, lateTaskRecord(d, eval))
	}
	c.observer.AddLateAssignments(report.LateAssignments)

	projectIDs := make([]int64, 0, len(batches))
	for id := range batches {
		projectIDs = append(projectIDs, id)
	}
	sort.Slice(projectIDs, func(i, j int) bool { return projectIDs[i] < projectIDs[j] })

	for _, id := range projectIDs {
		batch := batches[id]
		if err := c.publisher.Publish(ctx, events.QueueLateTasks, batch); err != nil {
			report.PublishFailures++
			log.Error("failed to publish late tasks",
				slog.Int64("project_id", id),
				slog.Int("task_count", len(batch.Tasks)),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%w: project %d: %w", ErrPublishFailed, id, err))
			continue
		}
		report.BatchesPublished++
	}

	log.Info("classifier run finished",
		slog.Int("evaluated", report.Evaluated),
		slog.Int("status_changes", report.StatusChanges),
		slog.Int("update_failures", report.UpdateFailures),
		slog.Int("late_assignments", report.LateAssignments),
		slog.Int("batches_published", report.BatchesPublished),
		slog.Int("publish_failures", report.PublishFailures))

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrRunIncomplete, errors.Join(errs...))
	}
	return report, nil
}

func lateTaskRecord(d domain.AssignmentDetail, eval delay.Evaluation) events.LateTaskRecord {
	return events.LateTaskRecord{
		TaskID:       d.TaskID,
		TaskName:     d.TaskName,
		EmployeeName: d.EmployeeName,
		ProjectName:  d.ProjectName,
		ProjectID:    d.ProjectID,
		EndDate:      d.EndDate,
		Progress:     d.Progress,
		Status:       eval.Status,
		EstimateTime: d.EstimateHours,
	}
}
