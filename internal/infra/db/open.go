// Package db opens the article store connection, applies embedded schema
// migrations and classifies driver errors into domain store errors.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver selects the storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver maps a DATABASE_DRIVER value to a Driver. Empty means postgres.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want postgres or sqlite)", name)
	}
}

// sqlDriverName returns the database/sql driver registered for d.
func (d Driver) sqlDriverName() string {
	if d == DriverSQLite {
		return "sqlite"
	}
	return "pgx"
}

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default pool configuration for d.
// SQLite is limited to a single connection so writers never contend for the file lock.
func DefaultConnectionConfig(d Driver) ConnectionConfig {
	if d == DriverSQLite {
		return ConnectionConfig{MaxOpenConns: 1, MaxIdleConns: 1}
	}
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates a connection pool for the given driver and verifies it with a ping.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open %s: empty DSN", driver)
	}
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	database, err := sql.Open(driver.sqlDriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	cfg := getConnectionConfigFromEnv(driver)
	database.SetMaxOpenConns(cfg.MaxOpenConns)
	database.SetMaxIdleConns(cfg.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("driver", string(driver)),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, Classify(err))
	}

	return database, nil
}

// sqliteDSN adds the pragmas every connection needs unless the caller set them.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// getConnectionConfigFromEnv overlays DB_* environment variables on the driver defaults.
// Invalid or non-positive values are ignored.
func getConnectionConfigFromEnv(driver Driver) ConnectionConfig {
	cfg := DefaultConnectionConfig(driver)

	if driver == DriverSQLite {
		return cfg
	}

	if val, ok := positiveInt(os.Getenv("DB_MAX_OPEN_CONNS")); ok {
		cfg.MaxOpenConns = val
	}
	if val, ok := positiveInt(os.Getenv("DB_MAX_IDLE_CONNS")); ok {
		cfg.MaxIdleConns = val
	}
	if val, ok := positiveDuration(os.Getenv("DB_CONN_MAX_LIFETIME")); ok {
		cfg.ConnMaxLifetime = val
	}
	if val, ok := positiveDuration(os.Getenv("DB_CONN_MAX_IDLE_TIME")); ok {
		cfg.ConnMaxIdleTime = val
	}

	return cfg
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil && v > 0
}

func positiveDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	v, err := time.ParseDuration(s)
	return v, err == nil && v > 0
}
