// Package worker hosts the refresh worker's runtime pieces: fail-open
// configuration, health probes, cron scheduling and run metrics.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"feed-ingest/internal/domain/entity"
)

// ErrRunInProgress is returned when a refresh is requested while another is running.
var ErrRunInProgress = errors.New("refresh already in progress")

const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// RefreshFunc performs one refresh run.
type RefreshFunc func(ctx context.Context) (*entity.RefreshSummary, error)

// Runner serializes refresh runs coming from the scheduler and the admin
// endpoint, bounds each with a timeout and records run metrics.
type Runner struct {
	refresh RefreshFunc
	timeout time.Duration
	metrics *WorkerMetrics
	logger  *slog.Logger

	running sync.Mutex

	mu   sync.RWMutex
	last *entity.RefreshSummary
}

// NewRunner creates a Runner. A zero timeout means no bound beyond ctx.
func NewRunner(refresh RefreshFunc, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger) *Runner {
	return &Runner{refresh: refresh, timeout: timeout, metrics: metrics, logger: logger}
}

// Run executes one refresh unless another is already running.
func (r *Runner) Run(ctx context.Context, trigger string) (*entity.RefreshSummary, error) {
	if !r.running.TryLock() {
		r.metrics.RecordJobRun(trigger, "skipped")
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	r.logger.Info("refresh job started", slog.String("trigger", trigger))

	summary, err := r.refresh(ctx)
	r.metrics.RecordJobDuration(time.Since(start))
	if err != nil {
		r.metrics.RecordJobRun(trigger, "failure")
		r.logger.Error("refresh job failed",
			slog.String("trigger", trigger),
			slog.Any("error", err))
		return nil, err
	}

	r.metrics.RecordJobRun(trigger, "success")
	r.metrics.RecordFeedsProcessed(summary.Total)
	r.metrics.RecordLastSuccess()

	r.mu.Lock()
	r.last = summary
	r.mu.Unlock()
	return summary, nil
}

// Last returns the summary of the most recent successful run in this process.
func (r *Runner) Last() *entity.RefreshSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}
