package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed-ingest/internal/pkg/config"
)

// WorkerConfig holds the worker's scheduling and refresh settings.
//
// Environment variables:
//   - CRON_SCHEDULE: 5-field cron expression (default "*/30 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "UTC")
//   - CRAWL_TIMEOUT: upper bound of one refresh run, 1m..4h (default 30m)
//   - WORKER_HEALTH_PORT: admin server port, 1024..65535 (default 9091)
//   - REFRESH_BATCH_SIZE: sources fetched concurrently, 1..20 (default 3)
//   - FETCH_TIMEOUT: per-feed download timeout, 1s..5m (default 10s)
//   - RETENTION_DAYS: article retention, 1..3650 (default 90)
//   - FEED_USER_AGENT: User-Agent for feed and page requests
//   - CONTENT_ENRICH_ENABLED: fetch article pages for entries without a body (default false)
type WorkerConfig struct {
	CronSchedule string
	Timezone     string
	CrawlTimeout time.Duration
	HealthPort   int

	BatchSize     int
	FetchTimeout  time.Duration
	RetentionDays int

	UserAgent            string
	ContentEnrichEnabled bool
}

// DefaultConfig returns the configuration used when no variable is set.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:  "*/30 * * * *",
		Timezone:      "UTC",
		CrawlTimeout:  30 * time.Minute,
		HealthPort:    9091,
		BatchSize:     3,
		FetchTimeout:  10 * time.Second,
		RetentionDays: 90,
	}
}

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.CrawlTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("crawl timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.BatchSize, 1, 20); err != nil {
		errs = append(errs, fmt.Errorf("batch size: %w", err))
	}
	if err := config.ValidateDuration(c.FetchTimeout, time.Second, 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("fetch timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.RetentionDays, 1, 3650); err != nil {
		errs = append(errs, fmt.Errorf("retention days: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the scheduling timezone, or UTC when it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the configuration with the fail-open policy: an
// invalid value falls back to its default, is logged as a warning and is
// counted in metrics. The result is always valid.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fallback := false

	track := func(field string, warnings []string, applied bool) {
		if !applied {
			return
		}
		fallback = true
		metrics.RecordFallback(field)
		for _, w := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}

	cron := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = cron.Value
	track("cron_schedule", cron.Warnings, cron.FallbackApplied)

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	track("timezone", tz.Warnings, tz.FallbackApplied)

	crawl := config.LoadEnvDuration("CRAWL_TIMEOUT", cfg.CrawlTimeout, config.DurationRange(time.Minute, 4*time.Hour))
	cfg.CrawlTimeout = crawl.Value
	track("crawl_timeout", crawl.Warnings, crawl.FallbackApplied)

	port := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535))
	cfg.HealthPort = port.Value
	track("health_port", port.Warnings, port.FallbackApplied)

	batch := config.LoadEnvInt("REFRESH_BATCH_SIZE", cfg.BatchSize, config.IntRange(1, 20))
	cfg.BatchSize = batch.Value
	track("batch_size", batch.Warnings, batch.FallbackApplied)

	fetch := config.LoadEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout, config.DurationRange(time.Second, 5*time.Minute))
	cfg.FetchTimeout = fetch.Value
	track("fetch_timeout", fetch.Warnings, fetch.FallbackApplied)

	days := config.LoadEnvInt("RETENTION_DAYS", cfg.RetentionDays, config.IntRange(1, 3650))
	cfg.RetentionDays = days.Value
	track("retention_days", days.Warnings, days.FallbackApplied)

	cfg.UserAgent = config.LoadEnvString("FEED_USER_AGENT", cfg.UserAgent)

	enrich := config.LoadEnvBool("CONTENT_ENRICH_ENABLED", cfg.ContentEnrichEnabled)
	cfg.ContentEnrichEnabled = enrich.Value
	track("content_enrich_enabled", enrich.Warnings, enrich.FallbackApplied)

	metrics.SetFallbackActive(fallback)
	metrics.RecordLoadTimestamp()
	return &cfg
}
