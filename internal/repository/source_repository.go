package repository

import (
	"context"
	"time"

	"feed-ingest/internal/domain/entity"
)

// SourceRepository is the source registry consumed by the refresh engine.
type SourceRepository interface {
	// ListActive returns every source with active = true, ordered by id.
	ListActive(ctx context.Context) ([]*entity.Source, error)
	// MarkFetched records a successful fetch. It is the only source mutation the engine performs.
	MarkFetched(ctx context.Context, id int64, t time.Time) error
	// Register inserts a source unless its feed URL is already registered.
	// It reports whether a row was created.
	Register(ctx context.Context, source *entity.Source) (bool, error)
}
