// Package retention purges articles that have aged out of the retention window.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/repository"
)

// DefaultRetentionDays is used when RETENTION_DAYS is unset.
const DefaultRetentionDays = 90

// Cleaner deletes old articles.
type Cleaner struct {
	repo repository.ArticleRepository
	now  func() time.Time
}

// NewCleaner creates a Cleaner.
func NewCleaner(repo repository.ArticleRepository) *Cleaner {
	return &Cleaner{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (c *Cleaner) WithClock(now func() time.Time) *Cleaner {
	c.now = now
	return c
}

// DeleteArticlesOlderThan removes every article published before now-days.
// Articles published exactly at the cutoff are kept.
func (c *Cleaner) DeleteArticlesOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive, got %d", entity.ErrInvalidInput, days)
	}

	cutoff := c.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := c.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete articles older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	metrics.RecordArticlesDeleted(deleted)
	slog.Info("retention cleanup completed",
		slog.Int("retention_days", days),
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", deleted))

	return deleted, nil
}
