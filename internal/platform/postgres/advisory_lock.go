package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const unlockTimeout = 5 * time.Second

// AdvisoryLocker guards a critical section with a session-level
// pg_try_advisory_lock. The lock is held on a dedicated pooled connection
// for as long as the caller keeps it, so it is released automatically if the
// process dies.
type AdvisoryLocker struct {
	db     *sql.DB
	key    int64
	logger *slog.Logger
}

// NewAdvisoryLocker creates a locker for the given advisory lock key.
func NewAdvisoryLocker(db *sql.DB, key int64, logger *slog.Logger) *AdvisoryLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryLocker{
		db:     db,
		key:    key,
		logger: logger.With(slog.String("component", "advisory_lock"), slog.Int64("lock_key", key)),
	}
}

// TryLock attempts to take the lock without waiting. When ok is true the
// caller must invoke release once the critical section is done.
func (l *AdvisoryLocker) TryLock(ctx context.Context) (release func(), ok bool, err error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve connection for advisory lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("failed to acquire advisory lock: %w", MapError(err))
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	release = func() {
		// The run context may already be cancelled; unlock on a fresh one.
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if _, err := conn.ExecContext(unlockCtx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			l.logger.Warn("failed to release advisory lock", slog.String("error", err.Error()))
		}
		if err := conn.Close(); err != nil {
			l.logger.Warn("failed to return advisory lock connection", slog.String("error", err.Error()))
		}
	}
	return release, true, nil
}
