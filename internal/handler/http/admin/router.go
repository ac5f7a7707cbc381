// Package admin serves the worker's operational HTTP surface: Prometheus
// metrics, health probes and manual refresh control.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/worker"
	"feed-ingest/internal/observability/tracing"
	"feed-ingest/internal/repository"
	"feed-ingest/internal/usecase/refresh"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators of the admin router.
type Deps struct {
	Runner   *worker.Runner
	Health   *worker.Health
	Metadata repository.MetadataRepository
	// Metrics serves /metrics, usually promhttp.Handler().
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter builds the admin router.
//
//	GET  /metrics
//	GET  /health
//	GET  /health/ready
//	POST /refresh
//	GET  /refresh/last
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(d.Logger))
	r.Use(tracing.Middleware)
	r.Use(Logging(d.Logger))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Get("/health", d.Health.Liveness)
	r.Get("/health/ready", d.Health.Readiness)

	h := &refreshHandler{runner: d.Runner, metadata: d.Metadata, logger: d.Logger}
	r.Post("/refresh", h.trigger)
	r.Get("/refresh/last", h.last)
	return r
}

type refreshHandler struct {
	runner   *worker.Runner
	metadata repository.MetadataRepository
	logger   *slog.Logger
}

// trigger runs a refresh synchronously and returns its summary. The run is
// detached from the request so a disconnecting client does not abort it.
func (h *refreshHandler) trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(context.WithoutCancel(r.Context()), worker.TriggerManual)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, summary)
	case errors.Is(err, worker.ErrRunInProgress):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, entity.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type lastRefreshResponse struct {
	LastRefreshAt time.Time              `json:"last_refresh_at"`
	Summary       *entity.RefreshSummary `json:"summary,omitempty"`
}

// last reports the persisted last-refresh marker and, when this process
// ran a refresh, its summary.
func (h *refreshHandler) last(w http.ResponseWriter, r *http.Request) {
	raw, err := h.metadata.Get(r.Context(), refresh.LastRefreshKey)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("no refresh has completed yet"))
			return
		}
		h.logger.Error("failed to read last refresh marker", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, lastRefreshResponse{LastRefreshAt: at, Summary: h.runner.Last()})
}

// NewHealthRouter serves only the probes, for a dedicated health port.
func NewHealthRouter(h *worker.Health) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	return r
}
