package metrics

import (
	"strconv"
	"time"
)

// Error kinds used as the "kind" label of feed_fetch_errors_total.
const (
	ErrorKindFetch   = "fetch"
	ErrorKindParse   = "parse"
	ErrorKindTimeout = "timeout"
	ErrorKindStore   = "store"
)

// RecordRefreshRun records the outcome and duration of one refresh run.
func RecordRefreshRun(status string, duration time.Duration) {
	RefreshRunsTotal.WithLabelValues(status).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// RecordFetchDuration records fetch+parse time for a source.
func RecordFetchDuration(sourceID int64, duration time.Duration) {
	FetchDuration.WithLabelValues(strconv.FormatInt(sourceID, 10)).Observe(duration.Seconds())
}

// RecordFetchError counts a failed source.
func RecordFetchError(sourceID int64, kind string) {
	FetchErrors.WithLabelValues(strconv.FormatInt(sourceID, 10), kind).Inc()
}

// RecordUpsert counts one article upsert by outcome.
func RecordUpsert(outcome string) {
	ArticlesUpsertedTotal.WithLabelValues(outcome).Inc()
}

// RecordArticlesDeleted adds n to the retention counter.
func RecordArticlesDeleted(n int64) {
	if n > 0 {
		ArticlesDeletedTotal.Add(float64(n))
	}
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func TrackInFlight() func() {
	FetchInFlight.Inc()
	return FetchInFlight.Dec
}
