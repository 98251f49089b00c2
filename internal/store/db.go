package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database handle used by store implementations.
// It is satisfied by *sql.DB, *sql.Tx and *sql.Conn, so a store can run on
// the pool, inside a transaction, or on a pinned session connection.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
