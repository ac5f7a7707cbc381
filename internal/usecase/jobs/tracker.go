// Package jobs records one FeedJob per source per refresh run and guards
// its lifecycle: RUNNING on open, then exactly one terminal write.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/repository"
)

// Tracker opens job handles.
type Tracker struct {
	repo repository.JobRepository
	now  func() time.Time
}

// NewTracker creates a Tracker backed by repo.
func NewTracker(repo repository.JobRepository) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Open persists a RUNNING job for sourceID within runID.
func (t *Tracker) Open(ctx context.Context, runID string, sourceID int64) (*Handle, error) {
	job := &entity.FeedJob{
		RunID:    runID,
		SourceID: sourceID,
		Status:   entity.JobPending,
	}
	if err := job.Start(t.now().UTC()); err != nil {
		return nil, err
	}

	id, err := t.repo.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create feed job: %w", err)
	}
	job.ID = id

	return &Handle{tracker: t, job: job}, nil
}

// Handle is an open job. Its terminal methods are safe for concurrent use
// and only the first successful one reaches storage.
type Handle struct {
	tracker *Tracker

	mu  sync.Mutex
	job *entity.FeedJob
}

// Job returns a snapshot of the job.
func (h *Handle) Job() entity.FeedJob {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.job
}

// Complete persists COMPLETED with the article counts.
func (h *Handle) Complete(ctx context.Context, found, added int) error {
	return h.finish(ctx, func(j *entity.FeedJob, at time.Time) error {
		return j.Complete(at, found, added)
	})
}

// Fail persists FAILED. An empty message is stored as "unknown error".
func (h *Handle) Fail(ctx context.Context, message string) error {
	return h.finish(ctx, func(j *entity.FeedJob, at time.Time) error {
		return j.Fail(at, message)
	})
}

func (h *Handle) finish(ctx context.Context, transition func(*entity.FeedJob, time.Time) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 永続化に失敗したときは RUNNING のまま残し、後続の Fail を許す
	next := *h.job
	if err := transition(&next, h.tracker.now().UTC()); err != nil {
		return err
	}
	if err := h.tracker.repo.Finish(ctx, &next); err != nil {
		return fmt.Errorf("finish feed job %d: %w", next.ID, err)
	}
	*h.job = next
	return nil
}
