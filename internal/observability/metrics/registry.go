package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh run metrics
var (
	// RefreshRunsTotal counts RefreshFeeds invocations by status (success, aborted)
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_refresh_runs_total",
			Help: "Total number of feed refresh runs",
		},
		[]string{"status"},
	)

	// RefreshDuration measures a whole refresh run
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_refresh_duration_seconds",
			Help:    "Duration of a feed refresh run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)
)

// Per-source fetch metrics
var (
	// FetchDuration measures fetch+parse time per source
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source_id"},
	)

	// FetchErrors counts failed fetches by source and error kind (fetch, parse, timeout, store)
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors",
		},
		[]string{"source_id", "kind"},
	)

	// FetchInFlight tracks sources currently being processed
	FetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_fetch_in_flight",
			Help: "Number of feed sources currently being processed",
		},
	)
)

// Article metrics
var (
	// ArticlesUpsertedTotal counts upsert results by outcome (inserted, already_exists, error)
	ArticlesUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_upserted_total",
			Help: "Total number of article upserts by outcome",
		},
		[]string{"outcome"},
	)

	// ArticlesDeletedTotal counts articles removed by retention
	ArticlesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_deleted_total",
			Help: "Total number of articles deleted by retention",
		},
	)
)
