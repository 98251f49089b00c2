package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/platform/logger"
)

// Outcome describes what happened to a late-tasks message.
type Outcome string

const (
	OutcomeNoConfig   Outcome = "no_config"
	OutcomeDisabled   Outcome = "disabled"
	OutcomeEmpty      Outcome = "empty"
	OutcomeThrottled  Outcome = "throttled"
	OutcomeDispatched Outcome = "dispatched"
	OutcomeFailed     Outcome = "failed"
)

// OutcomeObserver receives the outcome of every handled late-tasks message.
type OutcomeObserver interface {
	ObserveNotification(outcome string)
}

type nopOutcomeObserver struct{}

func (nopOutcomeObserver) ObserveNotification(string) {}

// Engine applies config, throttle and dispatch to late-tasks messages.
// Calls for the same project must not run concurrently; the notifier
// handles each queue sequentially.
type Engine struct {
	configs    ConfigStore
	throttle   ThrottleStore
	dispatcher *Dispatcher
	logger     *slog.Logger
	observer   OutcomeObserver
	now        func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithOutcomeObserver reports each outcome to o.
func WithOutcomeObserver(o OutcomeObserver) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an Engine. If logger is nil, the default logger is used.
func NewEngine(
	configs ConfigStore,
	throttle ThrottleStore,
	dispatcher *Dispatcher,
	logger *slog.Logger,
	opts ...EngineOption,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		configs:    configs,
		throttle:   throttle,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "notification_engine")),
		observer:   nopOutcomeObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyConfigUpdate stores the config carried by event, replacing any
// previous config for the project.
func (e *Engine) ApplyConfigUpdate(ctx context.Context, event *events.ConfigUpdateEvent) error {
	cfg := event.Config()
	if err := e.configs.Put(ctx, cfg); err != nil {
		return fmt.Errorf("failed to store notification config for project %d: %w", cfg.ProjectID, err)
	}

	log := logger.FromContextOrDefault(ctx, e.logger)
	attrs := []any{
		slog.Int64("project_id", cfg.ProjectID),
		slog.String("frequency", string(cfg.Frequency)),
		slog.Bool("send_alert", cfg.SendAlert),
	}
	if !cfg.Frequency.Known() {
		log.Warn("unknown notification frequency, using default window",
			append(attrs, slog.Duration("window", cfg.Frequency.Window()))...)
		return nil
	}
	log.Info("notification config updated", attrs...)
	return nil
}

// HandleLateTasks decides whether event triggers an email and sends it.
// lastSent is only advanced after a successful dispatch.
func (e *Engine) HandleLateTasks(ctx context.Context, event *events.LateTasksEvent) (Outcome, error) {
	outcome, err := e.handleLateTasks(ctx, event)
	e.observer.ObserveNotification(string(outcome))
	return outcome, err
}

func (e *Engine) handleLateTasks(ctx context.Context, event *events.LateTasksEvent) (Outcome, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.Int64("project_id", event.ProjectID),
		slog.Int("task_count", len(event.Tasks)))

	cfg, ok, err := e.configs.Get(ctx, event.ProjectID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to load notification config for project %d: %w", event.ProjectID, err)
	}
	if !ok {
		log.Info("no notification config for project, discarding late tasks")
		return OutcomeNoConfig, nil
	}
	if !cfg.SendAlert {
		log.Info("alerts disabled for project, discarding late tasks")
		return OutcomeDisabled, nil
	}
	if len(event.Tasks) == 0 {
		log.Debug("late-tasks message has no tasks")
		return OutcomeEmpty, nil
	}

	now := e.now()
	lastSent, sent, err := e.throttle.LastSent(ctx, event.ProjectID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to load throttle state for project %d: %w", event.ProjectID, err)
	}

	window := cfg.Frequency.Window()
	state := EvaluateThrottle(lastSent, sent, window, now)
	if !state.MayDispatch() {
		log.Info("notification throttled",
			slog.Time("last_sent", lastSent),
			slog.Duration("window", window),
			slog.Time("next_eligible", lastSent.Add(window)))
		return OutcomeThrottled, nil
	}

	if err := e.dispatcher.Dispatch(ctx, cfg.Email, event); err != nil {
		log.Error("failed to dispatch notification",
			slog.String("throttle_state", string(state)),
			slog.String("error", err.Error()))
		return OutcomeFailed, err
	}

	if err := e.throttle.MarkSent(ctx, event.ProjectID, now); err != nil {
		// Not returned: the email was delivered and must not be sent again.
		log.Error("failed to record notification send time", slog.String("error", err.Error()))
	}

	log.Info("notification dispatched",
		slog.String("throttle_state", string(state)),
		slog.Duration("window", window))
	return OutcomeDispatched, nil
}
