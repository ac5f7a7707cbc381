package refresh

import (
	"context"
	"errors"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/observability/metrics"
)

// ErrRunAborted wraps the infrastructure failure that stopped a run.
var ErrRunAborted = errors.New("refresh run aborted")

func isStoreUnavailable(err error) bool {
	return errors.Is(err, entity.ErrStoreUnavailable)
}

// errorKind labels a per-source failure for metrics.
func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ErrorKindTimeout
	}
	if isStoreUnavailable(err) {
		return metrics.ErrorKindStore
	}
	return metrics.ErrorKindFetch
}
