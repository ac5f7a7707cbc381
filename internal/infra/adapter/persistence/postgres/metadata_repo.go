package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/repository"
)

type MetadataRepo struct{ db *sql.DB }

func NewMetadataRepo(db *sql.DB) repository.MetadataRepository {
	return &MetadataRepo{db: db}
}

func (repo *MetadataRepo) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO app_metadata (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("Set: %w", db.Classify(err))
	}
	return nil
}

func (repo *MetadataRepo) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM app_metadata WHERE key = $1`
	var value string
	err := repo.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("Get %q: %w", key, entity.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("Get: %w", db.Classify(err))
	}
	return value, nil
}
