package repository

import (
	"context"

	"feed-ingest/internal/domain/entity"
)

// JobRepository persists FeedJob audit records.
type JobRepository interface {
	// Create stores a new job and returns its id.
	Create(ctx context.Context, job *entity.FeedJob) (int64, error)
	// Finish writes the terminal status, counts and error of a job.
	Finish(ctx context.Context, job *entity.FeedJob) error
	ListByRun(ctx context.Context, runID string) ([]*entity.FeedJob, error)
}
