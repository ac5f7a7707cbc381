package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-ingest/internal/domain/entity"
)

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"conn done", sql.ErrConnDone, true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"pg connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("exec: %w", context.DeadlineExceeded), false},
		{"already classified", entity.ErrStoreUnavailable, true},
		{"plain", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	err := Classify(fmt.Errorf("ping: %w", driver.ErrBadConn))
	assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
	assert.ErrorIs(t, err, driver.ErrBadConn)

	plain := errors.New("boom")
	assert.Same(t, plain, Classify(plain))
	assert.NoError(t, Classify(nil))
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	database, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "u.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	_, err = database.Exec(`CREATE TABLE t (url TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO t (url) VALUES ('https://a')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO t (url) VALUES ('https://a')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "got %v", err)
	assert.False(t, IsUnavailable(err))
}
