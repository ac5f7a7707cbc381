package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigrationFiles returns the embedded migration directory for driver.
func MigrationFiles(driver Driver) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+string(driver))
}

// MigrateUp applies every pending migration for driver against dsn.
// It opens its own connection; already-current schemas are not an error.
func MigrateUp(driver Driver, dsn string) error {
	migrateURL, err := migrateDatabaseURL(driver, dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrator",
				slog.Any("source_error", srcErr),
				slog.Any("database_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		slog.Info("database schema is up to date",
			slog.String("driver", string(driver)),
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty))
	}
	return nil
}

// migrateDatabaseURL rewrites a connection DSN into the URL scheme
// golang-migrate expects for the driver.
func migrateDatabaseURL(driver Driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		u, err := url.Parse(dsn)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return "", fmt.Errorf("postgres migrations need a postgres:// URL, got %q", redact(dsn))
		}
		u.Scheme = "pgx5"
		return u.String(), nil
	case DriverSQLite:
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" || path == ":memory:" {
			return "", errors.New("sqlite migrations need a file path, not an in-memory database")
		}
		return "sqlite://" + path, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// redact hides credentials in a DSN before it is logged or returned.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
