// Package observability groups the logging, metrics and tracing helpers used
// by the refresh worker.
//
// Subpackages:
//   - logging: slog construction and context propagation (run IDs, source IDs)
//   - metrics: Prometheus collectors for refresh runs, fetches and articles
//   - tracing: OpenTelemetry tracer and HTTP middleware for the admin server
package observability
