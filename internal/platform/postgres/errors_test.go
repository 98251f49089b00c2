package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/latewatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk"}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "task_assignments_status_check"}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "status"}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.expected)
		})
	}

	t.Run("unmapped errors pass through", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, MapError(original))
	})
}

func TestIsCheckConstraintViolation(t *testing.T) {
	assert.True(t, IsCheckConstraintViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsCheckConstraintViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsCheckConstraintViolation(errors.New("plain")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(store.ErrTaskNotFound))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Run("rows affected", func(t *testing.T) {
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrTaskNotFound))
	})

	t.Run("no rows maps to the given not found error", func(t *testing.T) {
		err := CheckRowsAffected(fakeResult{rows: 0}, store.ErrAssignmentNotFound)
		assert.ErrorIs(t, err, store.ErrAssignmentNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("no rows without specific error", func(t *testing.T) {
		assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, nil), store.ErrNotFound)
	})

	t.Run("rows affected error", func(t *testing.T) {
		err := CheckRowsAffected(fakeResult{err: errors.New("driver")}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get rows affected")
	})

	t.Run("nil result", func(t *testing.T) {
		assert.Error(t, CheckRowsAffected(nil, nil))
	})
}
