package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/domain/delay"
	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/mocks"
	"github.com/phrazzld/latewatch/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mu      sync.Mutex
	updates map[string]int
	late    int
}

func (o *recordingObserver) ObserveStatusUpdate(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.updates == nil {
		o.updates = make(map[string]int)
	}
	o.updates[result]++
}

func (o *recordingObserver) AddLateAssignments(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.late += n
}

func detail(id, projectID int64, status domain.AssignmentStatus, start, end time.Time, estimate, progress float64) domain.AssignmentDetail {
	d := domain.AssignmentDetail{
		TaskAssignment: domain.TaskAssignment{
			ID:            id,
			TaskID:        id * 10,
			EmployeeID:    1,
			StartDate:     start,
			EndDate:       end,
			EstimateHours: estimate,
			Progress:      progress,
			Status:        status,
		},
		TaskName:     "task",
		EmployeeName: "Sam",
		ProjectID:    projectID,
	}
	if projectID > 0 {
		d.ProjectName = "Apollo"
	}
	return d
}

func newClassifier(t *testing.T, assignments *mocks.MockAssignmentStore, publisher *mocks.MockPublisher, opts ...service.ClassifierOption) *service.DelayClassifier {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]service.ClassifierOption{service.WithClassifierClock(func() time.Time { return runTime })}, opts...)
	c, err := service.NewDelayClassifier(assignments, publisher, delay.NewDefaultParams(), logger, opts...)
	require.NoError(t, err)
	return c
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDelayClassifier(t *testing.T) {
	t.Parallel()

	_, err := service.NewDelayClassifier(nil, &mocks.MockPublisher{}, delay.NewDefaultParams(), nil)
	assert.Error(t, err)

	_, err = service.NewDelayClassifier(&mocks.MockAssignmentStore{}, nil, delay.NewDefaultParams(), nil)
	assert.Error(t, err)

	c, err := service.NewDelayClassifier(&mocks.MockAssignmentStore{}, &mocks.MockPublisher{}, delay.NewDefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, service.ClassifierJobName, c.Name())
}

func TestClassify_OverdueAssignmentIsPublished(t *testing.T) {
	t.Parallel()

	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 7, domain.StatusInProgress, day(1), day(10), 40, 10),
		},
	}
	publisher := &mocks.MockPublisher{}
	c := newClassifier(t, assignments, publisher)

	report, err := c.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.StatusChanges)
	assert.Equal(t, 1, report.LateAssignments)
	assert.Equal(t, 1, report.BatchesPublished)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, runTime, report.StartedAt)

	assert.Equal(t, []mocks.StatusUpdate{{ID: 1, Status: domain.StatusBehindSchedule}}, assignments.Updates())

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.QueueLateTasks, msgs[0].Queue)
	event, ok := msgs[0].Payload.(*events.LateTasksEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), event.ProjectID)
	assert.Equal(t, "Apollo", event.ProjectName)
	require.Len(t, event.Tasks, 1)
	record := event.Tasks[0]
	assert.Equal(t, int64(10), record.TaskID)
	assert.Equal(t, domain.StatusBehindSchedule, record.Status)
	assert.Equal(t, 10.0, record.Progress)
	assert.Equal(t, 40.0, record.EstimateTime)
	assert.Equal(t, day(10), record.EndDate)
}

func TestClassify_OnTrackAssignmentIsNotLate(t *testing.T) {
	t.Parallel()

	start := runTime.Add(-10 * time.Hour)
	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 7, domain.StatusInProgress, start, start.Add(30*24*time.Hour), 100, 5),
		},
	}
	publisher := &mocks.MockPublisher{}
	c := newClassifier(t, assignments, publisher)

	report, err := c.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.LateAssignments)
	assert.Equal(t, 0, report.StatusChanges)
	assert.Empty(t, assignments.Updates(), "unchanged status must not be written")
	assert.Empty(t, publisher.Messages())
}

func TestClassify_WritesOnlyChangedStatuses(t *testing.T) {
	t.Parallel()

	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 1, domain.StatusCompleted, day(1), day(5), 10, 100),
			detail(2, 1, domain.StatusInProgress, day(1), day(5), 10, 100),
			detail(3, 1, domain.StatusPending, day(20), day(25), 10, 0),
			detail(4, 1, domain.StatusInProgress, day(20), day(25), 10, 0),
		},
	}
	c := newClassifier(t, assignments, &mocks.MockPublisher{})

	report, err := c.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Evaluated)
	assert.Equal(t, 2, report.StatusChanges)
	assert.Equal(t, []mocks.StatusUpdate{
		{ID: 2, Status: domain.StatusCompleted},
		{ID: 4, Status: domain.StatusPending},
	}, assignments.Updates())
}

func TestClassify_GroupsByProjectInAscendingOrder(t *testing.T) {
	t.Parallel()

	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 9, domain.StatusBehindSchedule, day(1), day(5), 10, 0),
			detail(2, 3, domain.StatusInProgress, day(1), day(5), 10, 0),
			detail(3, 9, domain.StatusInProgress, day(1), day(6), 10, 0),
			detail(4, 0, domain.StatusInProgress, day(1), day(6), 10, 0),
		},
	}
	publisher := &mocks.MockPublisher{}
	c := newClassifier(t, assignments, publisher)

	report, err := c.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.LateAssignments)
	assert.Equal(t, 2, report.BatchesPublished)

	msgs := publisher.Messages()
	require.Len(t, msgs, 2)
	first := msgs[0].Payload.(*events.LateTasksEvent)
	second := msgs[1].Payload.(*events.LateTasksEvent)
	assert.Equal(t, int64(3), first.ProjectID)
	assert.Len(t, first.Tasks, 1)
	assert.Equal(t, int64(9), second.ProjectID)
	require.Len(t, second.Tasks, 2)
	assert.Equal(t, int64(10), second.Tasks[0].TaskID)
	assert.Equal(t, int64(30), second.Tasks[1].TaskID)
}

func TestClassify_UpdateFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 2, domain.StatusInProgress, day(1), day(5), 10, 0),
			detail(2, 2, domain.StatusInProgress, day(1), day(5), 10, 0),
		},
		UpdateAssignmentStatusFn: func(_ context.Context, id int64, _ domain.AssignmentStatus) error {
			if id == 1 {
				return dbErr
			}
			return nil
		},
	}
	publisher := &mocks.MockPublisher{}
	observer := &recordingObserver{}
	c := newClassifier(t, assignments, publisher, service.WithClassifierObserver(observer))

	report, err := c.Classify(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrRunIncomplete)
	assert.ErrorIs(t, err, dbErr)

	assert.Equal(t, 2, report.Evaluated)
	assert.Equal(t, 1, report.UpdateFailures)
	assert.Equal(t, 1, report.StatusChanges)
	assert.Len(t, assignments.Updates(), 2)

	// Lateness is reported even when the status write failed.
	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Payload.(*events.LateTasksEvent).Tasks, 2)

	assert.Equal(t, 1, observer.updates["ok"])
	assert.Equal(t, 1, observer.updates["error"])
	assert.Equal(t, 2, observer.late)
}

func TestClassify_PublishFailureIsReported(t *testing.T) {
	t.Parallel()

	brokerErr := errors.New("broker unavailable")
	assignments := &mocks.MockAssignmentStore{
		Details: []domain.AssignmentDetail{
			detail(1, 1, domain.StatusBehindSchedule, day(1), day(5), 10, 0),
			detail(2, 2, domain.StatusBehindSchedule, day(1), day(5), 10, 0),
		},
	}
	publisher := &mocks.MockPublisher{
		PublishFn: func(_ context.Context, _ string, payload interface{}) error {
			if payload.(*events.LateTasksEvent).ProjectID == 1 {
				return brokerErr
			}
			return nil
		},
	}
	c := newClassifier(t, assignments, publisher)

	report, err := c.Classify(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrPublishFailed)
	assert.ErrorIs(t, err, brokerErr)
	assert.Equal(t, 1, report.PublishFailures)
	assert.Equal(t, 1, report.BatchesPublished)
	require.Len(t, publisher.Messages(), 1)
}

func TestClassify_LoadFailure(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("relation does not exist")
	assignments := &mocks.MockAssignmentStore{DefaultError: loadErr}
	publisher := &mocks.MockPublisher{}
	c := newClassifier(t, assignments, publisher)

	report, err := c.Classify(context.Background())
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, 0, report.Evaluated)
	assert.Empty(t, publisher.Messages())
}

func TestClassify_NoAssignments(t *testing.T) {
	t.Parallel()

	publisher := &mocks.MockPublisher{}
	c := newClassifier(t, &mocks.MockAssignmentStore{}, publisher)

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, publisher.Messages())
}
