package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/repository"
)

type JobRepo struct{ db *sql.DB }

func NewJobRepo(db *sql.DB) repository.JobRepository {
	return &JobRepo{db: db}
}

func (repo *JobRepo) Create(ctx context.Context, job *entity.FeedJob) (int64, error) {
	const query = `
INSERT INTO feed_jobs (run_id, source_id, status, started_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	var id int64
	err := repo.db.QueryRowContext(ctx, query,
		job.RunID, job.SourceID, string(job.Status), job.StartedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Create: %w", db.Classify(err))
	}
	return id, nil
}

// Finish only updates non-terminal rows, so a job can be closed once.
func (repo *JobRepo) Finish(ctx context.Context, job *entity.FeedJob) error {
	const query = `
UPDATE feed_jobs
SET status = $1, completed_at = $2, articles_found = $3, articles_added = $4, error = $5
WHERE id = $6 AND status IN ('PENDING', 'RUNNING')`
	res, err := repo.db.ExecContext(ctx, query,
		string(job.Status), job.CompletedAt, job.ArticlesFound, job.ArticlesAdded, job.Error, job.ID,
	)
	if err != nil {
		return fmt.Errorf("Finish: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Finish: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Finish: job %d: %w", job.ID, entity.ErrInvalidJobTransition)
	}
	return nil
}

func (repo *JobRepo) ListByRun(ctx context.Context, runID string) ([]*entity.FeedJob, error) {
	const query = `
SELECT id, run_id, source_id, status, started_at, completed_at,
       articles_found, articles_added, error
FROM feed_jobs
WHERE run_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("ListByRun: %w", db.Classify(err))
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*entity.FeedJob, error) {
	var jobs []*entity.FeedJob
	for rows.Next() {
		var j entity.FeedJob
		var status string
		if err := rows.Scan(
			&j.ID, &j.RunID, &j.SourceID, &status, &j.StartedAt, &j.CompletedAt,
			&j.ArticlesFound, &j.ArticlesAdded, &j.Error,
		); err != nil {
			return nil, fmt.Errorf("ListByRun: Scan: %w", err)
		}
		j.Status = entity.JobStatus(status)
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRun: %w", err)
	}
	return jobs, nil
}
