package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/robfig/cron/v3"
)

// SchedulerConfig holds configuration for the Scheduler.
type SchedulerConfig struct {
	// RunTimeout bounds every job run. Zero means no timeout.
	RunTimeout time.Duration
}

type entry struct {
	job     Job
	spec    string
	id      cron.EntryID
	running sync.Mutex
}

// Scheduler triggers jobs on cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	cfg      SchedulerConfig
	logger   *slog.Logger
	locker   Locker
	observer RunObserver

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*entry
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLocker guards every run with l in addition to the in-process run lock.
func WithLocker(l Locker) SchedulerOption {
	return func(s *Scheduler) { s.locker = l }
}

// WithRunObserver reports run results to o.
func WithRunObserver(o RunObserver) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// NewScheduler creates a Scheduler. Jobs are not triggered until Start.
func NewScheduler(cfg SchedulerConfig, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))
	cl := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register schedules job according to spec, e.g. "@weekly", "@every 1h" or "0 6 * * 1".
func (s *Scheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	e := &entry{job: job, spec: spec}
	id, err := s.cron.AddFunc(spec, func() { s.trigger(e) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	e.id = id
	s.jobs[name] = e

	s.logger.Info("job registered", slog.String("job", name), slog.String("schedule", spec))
	return nil
}

// Start begins triggering registered jobs. It does not block.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, e := range s.jobs {
		s.logger.Info("job scheduled",
			slog.String("job", name),
			slog.Time("next_run", s.cron.Entry(e.id).Next))
	}
}

// Stop stops triggering jobs, cancels running ones, and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

// RunNow runs the named job immediately under the same guards as a scheduled trigger.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	return s.run(ctx, e, "manual", e.job.Run)
}

// Exclusive runs fn under the named job's guards and timeout, so callers can
// run the job's work directly and still never overlap a scheduled run.
func (s *Scheduler) Exclusive(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	return s.run(ctx, e, "manual", fn)
}

func (s *Scheduler) lookup(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return e, nil
}

// trigger is invoked by cron on the cron goroutine.
func (s *Scheduler) trigger(e *entry) {
	err := s.run(s.ctx, e, "schedule", e.job.Run)
	if err != nil && !errors.Is(err, ErrRunInProgress) && !errors.Is(err, ErrLockNotAcquired) {
		s.logger.Error("scheduled job failed",
			slog.String("job", e.job.Name()),
			slog.String("error", err.Error()))
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry, trigger string, fn func(context.Context) error) error {
	name := e.job.Name()
	runID := uuid.NewString()
	log := s.logger.With(
		slog.String("job", name),
		slog.String("run_id", runID),
		slog.String("trigger", trigger))

	if !e.running.TryLock() {
		log.Warn("skipping job run, previous run still active")
		s.observe(ResultSkipped, 0)
		return fmt.Errorf("%w: %s", ErrRunInProgress, name)
	}
	defer e.running.Unlock()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx)
		if err != nil {
			log.Error("failed to acquire job lock", slog.String("error", err.Error()))
			s.observe(ResultError, 0)
			return fmt.Errorf("job %s: %w", name, err)
		}
		if !ok {
			log.Warn("skipping job run, lock held by another process")
			s.observe(ResultSkipped, 0)
			return fmt.Errorf("%w: %s", ErrLockNotAcquired, name)
		}
		defer release()
	}

	ctx = logger.WithRequestID(logger.WithLogger(ctx, log), runID)

	start := time.Now()
	log.Info("job run started")
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("job run failed",
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		s.observe(ResultError, elapsed)
		return err
	}

	log.Info("job run completed", slog.Duration("duration", elapsed))
	s.observe(ResultSuccess, elapsed)
	return nil
}

func (s *Scheduler) observe(result string, d time.Duration) {
	if s.observer != nil {
		s.observer.ObserveRun(result, d)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
