// Package tracing wires OpenTelemetry spans into the refresh worker.
//
// The tracer is taken from the global provider, so spans are no-ops until a
// provider is installed (tests install an in-memory one).
//
//	ctx, span := tracing.StartSpan(ctx, "refresh.source",
//	    attribute.Int64("source.id", src.ID))
//	defer span.End()
package tracing
