package task

import (
	"context"
	"errors"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name identifies the job in logs and RunNow calls. It must be unique per Scheduler.
	Name() string

	// Run executes the job once. ctx carries the run timeout.
	Run(ctx context.Context) error
}

// Locker provides cross-process mutual exclusion around a job run.
type Locker interface {
	// TryLock attempts to take the lock without blocking. When ok is true the
	// caller must call release after the run.
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// RunObserver receives the result and duration of every attempted run.
type RunObserver interface {
	ObserveRun(result string, d time.Duration)
}

// Run results reported to RunObserver.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	// ErrRunInProgress is returned when a job is triggered while its previous run is still active.
	ErrRunInProgress = errors.New("job run already in progress")

	// ErrLockNotAcquired is returned when another process holds the job's distributed lock.
	ErrLockNotAcquired = errors.New("job lock held by another process")

	// ErrUnknownJob is returned by RunNow for names that were never registered.
	ErrUnknownJob = errors.New("unknown job")

	// ErrDuplicateJob is returned by Register when the name is already taken.
	ErrDuplicateJob = errors.New("job already registered")
)
