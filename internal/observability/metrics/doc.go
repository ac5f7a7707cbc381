// Package metrics holds the Prometheus collectors for feed refresh.
//
// All collectors are registered with the default registry through promauto
// and served by the worker's /metrics endpoint.
//
//	start := time.Now()
//	// ... refresh ...
//	metrics.RecordRefreshRun("success", time.Since(start))
package metrics
