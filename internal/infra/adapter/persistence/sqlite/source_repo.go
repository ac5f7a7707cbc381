package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	const query = `
SELECT id, name, url, feed_url, category_id, active,
       fetch_interval_minutes, last_fetched_at, created_at
FROM sources
WHERE active = 1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", db.Classify(err))
	}
	defer func() { _ = rows.Close() }()

	var sources []*entity.Source
	for rows.Next() {
		var s entity.Source
		var lastFetched sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.Name, &s.URL, &s.FeedURL, &s.CategoryID, &s.Active,
			&s.FetchIntervalMinutes, &lastFetched, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		if lastFetched.Valid {
			t := lastFetched.Time
			s.LastFetchedAt = &t
		}
		sources = append(sources, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: %w", db.Classify(err))
	}
	return sources, nil
}

func (repo *SourceRepo) MarkFetched(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE sources SET last_fetched_at = ? WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, t.UTC(), id)
	if err != nil {
		return fmt.Errorf("MarkFetched: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkFetched: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("MarkFetched: source %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *SourceRepo) Register(ctx context.Context, source *entity.Source) (bool, error) {
	const query = `
INSERT INTO sources (name, url, feed_url, category_id, active, fetch_interval_minutes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (feed_url) DO NOTHING`
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.URL, source.FeedURL, source.CategoryID,
		source.Active, source.FetchIntervalMinutes, source.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("Register: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Register: RowsAffected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if source.ID, err = res.LastInsertId(); err != nil {
		return true, fmt.Errorf("Register: LastInsertId: %w", err)
	}
	return true, nil
}
