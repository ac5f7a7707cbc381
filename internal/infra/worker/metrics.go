package worker

import (
	"time"

	"feed-ingest/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics embeds the worker's config metrics and adds run-level
// metrics for scheduled and manual refreshes.
//
//   - worker_cron_job_runs_total{trigger,status}
//   - worker_cron_job_duration_seconds
//   - worker_cron_job_feeds_processed_total
//   - worker_cron_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobFeedsProcessedTotal  prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),

		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of refresh runs by trigger (cron/manual) and status",
		}, []string{"trigger", "status"}),

		CronJobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of refresh runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobFeedsProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_feeds_processed_total",
			Help: "Total number of sources processed across all refresh runs",
		}),

		CronJobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful refresh run",
		}),
	}
}

// RecordJobRun counts one run. status is success, failure or skipped.
func (m *WorkerMetrics) RecordJobRun(trigger, status string) {
	m.CronJobRunsTotal.WithLabelValues(trigger, status).Inc()
}

// RecordJobDuration observes the wall time of one run.
func (m *WorkerMetrics) RecordJobDuration(d time.Duration) {
	m.CronJobDurationSeconds.Observe(d.Seconds())
}

// RecordFeedsProcessed adds the number of sources in a finished run.
func (m *WorkerMetrics) RecordFeedsProcessed(count int) {
	m.CronJobFeedsProcessedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
