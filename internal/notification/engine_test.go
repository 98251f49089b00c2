package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/mocks"
	"github.com/phrazzld/latewatch/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type outcomeRecorder struct {
	outcomes []string
}

func (r *outcomeRecorder) ObserveNotification(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

type engineFixture struct {
	engine   *notification.Engine
	configs  *notification.MemoryConfigStore
	throttle *notification.MemoryThrottleStore
	sender   *mocks.MockSender
	clock    *clock
	observer *outcomeRecorder
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		configs:  notification.NewMemoryConfigStore(),
		throttle: notification.NewMemoryThrottleStore(),
		sender:   &mocks.MockSender{},
		clock:    &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		observer: &outcomeRecorder{},
	}
	f.engine = notification.NewEngine(
		f.configs,
		f.throttle,
		notification.NewDispatcher(f.sender),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		notification.WithClock(f.clock.Now),
		notification.WithOutcomeObserver(f.observer),
	)
	return f
}

func (f *engineFixture) configure(t *testing.T, cfg domain.NotificationConfig) {
	t.Helper()
	event := events.NewConfigUpdateEvent(cfg)
	require.NoError(t, f.engine.ApplyConfigUpdate(context.Background(), &event))
}

func lateTasks(projectID int64) *events.LateTasksEvent {
	return &events.LateTasksEvent{
		ProjectID:   projectID,
		ProjectName: "Apollo",
		Tasks: []events.LateTaskRecord{{
			TaskID:       11,
			TaskName:     "Design review",
			EmployeeName: "Ada",
			ProjectName:  "Apollo",
			ProjectID:    projectID,
			EndDate:      time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
			Progress:     40,
			Status:       domain.StatusBehindSchedule,
			EstimateTime: 16,
		}},
	}
}

func TestEngineDailyThrottleWindow(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: domain.FrequencyDaily, SendAlert: true})

	outcome, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDispatched, outcome, "first message for a project must dispatch")
	firstSend := f.clock.Now()

	f.clock.Advance(23 * time.Hour)
	outcome, err = f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeThrottled, outcome)

	lastSent, ok, err := f.throttle.LastSent(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, firstSend, lastSent, "suppressed message must not advance lastSent")

	f.clock.Advance(2 * time.Hour)
	outcome, err = f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDispatched, outcome)

	lastSent, _, err = f.throttle.LastSent(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), lastSent)
	assert.Len(t, f.sender.Sent(), 2)
	assert.Equal(t, []string{"dispatched", "throttled", "dispatched"}, f.observer.outcomes)
}

func TestEngineWindowBoundaryIsEligible(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: domain.FrequencyHourly, SendAlert: true})

	_, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	outcome, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDispatched, outcome)
}

func TestEngineNeverDispatchesWithoutEnabledConfig(t *testing.T) {
	t.Run("no config", func(t *testing.T) {
		f := newEngineFixture()
		outcome, err := f.engine.HandleLateTasks(context.Background(), lateTasks(7))
		require.NoError(t, err)
		assert.Equal(t, notification.OutcomeNoConfig, outcome)
		assert.Empty(t, f.sender.Sent())
	})

	t.Run("alerts disabled", func(t *testing.T) {
		f := newEngineFixture()
		f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: domain.FrequencyDaily, SendAlert: false})

		outcome, err := f.engine.HandleLateTasks(context.Background(), lateTasks(7))
		require.NoError(t, err)
		assert.Equal(t, notification.OutcomeDisabled, outcome)
		assert.Empty(t, f.sender.Sent())
	})

	t.Run("config for another project", func(t *testing.T) {
		f := newEngineFixture()
		f.configure(t, domain.NotificationConfig{ProjectID: 8, Email: "lead@example.com", Frequency: domain.FrequencyDaily, SendAlert: true})

		outcome, err := f.engine.HandleLateTasks(context.Background(), lateTasks(7))
		require.NoError(t, err)
		assert.Equal(t, notification.OutcomeNoConfig, outcome)
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newEngineFixture()
		f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: domain.FrequencyDaily, SendAlert: true})

		outcome, err := f.engine.HandleLateTasks(context.Background(), &events.LateTasksEvent{ProjectID: 7})
		require.NoError(t, err)
		assert.Equal(t, notification.OutcomeEmpty, outcome)
		assert.Empty(t, f.sender.Sent())
	})
}

func TestEngineConfigLastWriteWins(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "old@example.com", Frequency: domain.FrequencyWeekly, SendAlert: true})
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "new@example.com", Frequency: domain.FrequencyHourly, SendAlert: true})

	cfg, ok, err := f.configs.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", cfg.Email)
	assert.Equal(t, domain.FrequencyHourly, cfg.Frequency)
	assert.Equal(t, 1, f.configs.Len())

	_, err = f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	require.Len(t, f.sender.Sent(), 1)
	assert.Equal(t, "new@example.com", f.sender.Sent()[0].To)

	f.configure(t, domain.NotificationConfig{ProjectID: 7, SendAlert: false})
	f.clock.Advance(2 * time.Hour)
	outcome, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDisabled, outcome, "newest config disables alerts entirely")
}

func TestEngineUnknownFrequencyUsesDefaultWindow(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: "fortnightly", SendAlert: true})

	_, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	outcome, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeThrottled, outcome)

	f.clock.Advance(time.Hour)
	outcome, err = f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDispatched, outcome)
}

func TestEngineDispatchFailureKeepsLastSent(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Email: "lead@example.com", Frequency: domain.FrequencyDaily, SendAlert: true})

	f.sender.DefaultError = errors.New("provider returned 503")
	outcome, err := f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.Error(t, err)
	assert.ErrorIs(t, err, notification.ErrDispatch)
	assert.Equal(t, notification.OutcomeFailed, outcome)

	_, ok, err := f.throttle.LastSent(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "failed dispatch must not record a send")

	f.sender.DefaultError = nil
	outcome, err = f.engine.HandleLateTasks(ctx, lateTasks(7))
	require.NoError(t, err)
	assert.Equal(t, notification.OutcomeDispatched, outcome, "redelivered message is still eligible")
}

func TestEngineEnabledConfigWithoutEmail(t *testing.T) {
	f := newEngineFixture()
	f.configure(t, domain.NotificationConfig{ProjectID: 7, Frequency: domain.FrequencyDaily, SendAlert: true})

	_, err := f.engine.HandleLateTasks(context.Background(), lateTasks(7))
	assert.ErrorIs(t, err, notification.ErrDispatch)
	assert.ErrorIs(t, err, notification.ErrNoRecipient)
	assert.Empty(t, f.sender.Sent())
}

func TestEngineMessageHandlers(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	err := f.engine.HandleConfigUpdateMessage(ctx,
		[]byte(`{"projectId":7,"email":"lead@example.com","frequency":"daily","sendAlert":true}`))
	require.NoError(t, err)

	err = f.engine.HandleLateTasksMessage(ctx, []byte(`{
		"projectId": 7,
		"projectName": "Apollo",
		"tasks": [{
			"taskId": 11,
			"taskName": "Design review",
			"employeeName": "Ada",
			"projectName": "Apollo",
			"projectId": 7,
			"endDate": "2024-04-30T00:00:00Z",
			"progress": 40,
			"status": "BEHIND_SCHEDULE",
			"estimateTime": 16
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, f.sender.Sent(), 1)

	tests := []struct {
		name string
		fn   func(context.Context, []byte) error
		body string
	}{
		{"late tasks not json", f.engine.HandleLateTasksMessage, `not json`},
		{"late tasks missing project", f.engine.HandleLateTasksMessage, `{"tasks":[]}`},
		{"config not json", f.engine.HandleConfigUpdateMessage, `{`},
		{"config bad email", f.engine.HandleConfigUpdateMessage, `{"projectId":7,"email":"nope","frequency":"daily","sendAlert":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(ctx, []byte(tt.body))
			assert.ErrorIs(t, err, events.ErrMalformedMessage)
		})
	}
}
