package repository

import (
	"context"
	"time"

	"feed-ingest/internal/domain/entity"
)

// ArticleRepository is the article store. Uniqueness of URL is enforced by
// the store itself, so concurrent upserts of one URL leave exactly one row.
type ArticleRepository interface {
	// UpsertByURL inserts the article or reports AlreadyExists on a URL conflict.
	// A conflict is never returned as an error.
	UpsertByURL(ctx context.Context, article *entity.Article) (entity.UpsertOutcome, error)
	// DeleteOlderThan removes articles published strictly before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountBySource(ctx context.Context, sourceID int64) (int64, error)
}

// MetadataRepository is a small key/value store for run markers.
type MetadataRepository interface {
	Set(ctx context.Context, key, value string) error
	// Get returns entity.ErrNotFound when the key has never been set.
	Get(ctx context.Context, key string) (string, error)
}
