// Package postgres implements the repository interfaces on PostgreSQL
// through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/repository"
)

type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// UpsertByURL relies on the unique index on url. ON CONFLICT DO NOTHING keeps
// concurrent inserts of one URL down to a single row; the losing writer sees
// zero affected rows and reports AlreadyExists.
func (repo *ArticleRepo) UpsertByURL(ctx context.Context, article *entity.Article) (entity.UpsertOutcome, error) {
	const query = `
INSERT INTO articles
       (title, description, content, url, image_url, author,
        published_at, source_id, category_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url) DO NOTHING`
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	res, err := repo.db.ExecContext(ctx, query,
		article.Title, article.Description, article.Content, article.URL,
		article.ImageURL, article.Author, article.PublishedAt,
		article.SourceID, article.CategoryID, article.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return entity.AlreadyExists, nil
		}
		return 0, fmt.Errorf("UpsertByURL: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpsertByURL: RowsAffected: %w", err)
	}
	if n == 0 {
		return entity.AlreadyExists, nil
	}
	return entity.Inserted, nil
}

func (repo *ArticleRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM articles WHERE published_at < $1`
	res, err := repo.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: RowsAffected: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) CountBySource(ctx context.Context, sourceID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles WHERE source_id = $1`
	var n int64
	if err := repo.db.QueryRowContext(ctx, query, sourceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountBySource: %w", db.Classify(err))
	}
	return n, nil
}
