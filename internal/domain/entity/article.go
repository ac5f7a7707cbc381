// Package entity defines the core domain entities of the feed ingestion engine:
// sources, articles, raw feed entries, fetch jobs and the per-run refresh summary.
package entity

import "time"

// Article is a canonicalized feed entry. URL is the sole deduplication key
// and the article is never updated after it has been inserted.
type Article struct {
	ID          int64
	Title       string
	Description string
	Content     *string
	URL         string
	ImageURL    *string
	Author      *string
	PublishedAt time.Time
	SourceID    int64
	CategoryID  *int64
	CreatedAt   time.Time
}

// UpsertOutcome reports what an upsert-by-URL did with an article.
type UpsertOutcome int

const (
	// Inserted means a new row was written.
	Inserted UpsertOutcome = iota + 1
	// AlreadyExists means a row with the same URL was already stored.
	AlreadyExists
)

func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}
