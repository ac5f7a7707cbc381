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

type JobRepo struct{ db *sql.DB }

func NewJobRepo(db *sql.DB) repository.JobRepository {
	return &JobRepo{db: db}
}

func (repo *JobRepo) Create(ctx context.Context, job *entity.FeedJob) (int64, error) {
	const query = `
INSERT INTO feed_jobs (run_id, source_id, status, started_at)
VALUES (?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		job.RunID, job.SourceID, string(job.Status), job.StartedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("Create: %w", db.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("Create: LastInsertId: %w", err)
	}
	return id, nil
}

func (repo *JobRepo) Finish(ctx context.Context, job *entity.FeedJob) error {
	const query = `
UPDATE feed_jobs
SET status = ?, completed_at = ?, articles_found = ?, articles_added = ?, error = ?
WHERE id = ? AND status IN ('PENDING', 'RUNNING')`
	var completed *time.Time
	if job.CompletedAt != nil {
		utc := job.CompletedAt.UTC()
		completed = &utc
	}
	res, err := repo.db.ExecContext(ctx, query,
		string(job.Status), completed, job.ArticlesFound, job.ArticlesAdded, job.Error, job.ID,
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
WHERE run_id = ?
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("ListByRun: %w", db.Classify(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*entity.FeedJob
	for rows.Next() {
		var j entity.FeedJob
		var status string
		var completed sql.NullTime
		var errText sql.NullString
		if err := rows.Scan(
			&j.ID, &j.RunID, &j.SourceID, &status, &j.StartedAt, &completed,
			&j.ArticlesFound, &j.ArticlesAdded, &errText,
		); err != nil {
			return nil, fmt.Errorf("ListByRun: Scan: %w", err)
		}
		j.Status = entity.JobStatus(status)
		if completed.Valid {
			t := completed.Time
			j.CompletedAt = &t
		}
		if errText.Valid {
			s := errText.String
			j.Error = &s
		}
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRun: %w", err)
	}
	return jobs, nil
}
