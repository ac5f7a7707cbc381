package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/adapter/persistence/sqlite"
	"feed-ingest/internal/infra/db"
)

// openTestDB returns a migrated database in a per-test temporary file.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.db")
	if err := db.MigrateUp(db.DriverSQLite, path); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	database, err := db.Open(context.Background(), db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func mustRegister(t *testing.T, database *sql.DB, name, feedURL string, active bool) *entity.Source {
	t.Helper()
	src := &entity.Source{Name: name, FeedURL: feedURL, Active: active, FetchIntervalMinutes: 60}
	created, err := sqlite.NewSourceRepo(database).Register(context.Background(), src)
	if err != nil || !created {
		t.Fatalf("Register(%s) created=%v err=%v", feedURL, created, err)
	}
	return src
}
