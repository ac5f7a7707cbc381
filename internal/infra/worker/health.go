package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Health serves the liveness and readiness probes. Readiness requires
// SetReady(true) and every registered check to pass.
type Health struct {
	logger *slog.Logger
	ready  atomic.Bool

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealth creates a Health that starts out not ready.
func NewHealth(logger *slog.Logger) *Health {
	return &Health{logger: logger, checks: make(map[string]CheckFunc)}
}

// AddCheck registers a readiness check, e.g. a database ping.
func (h *Health) AddCheck(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = fn
}

// SetReady flips the readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("health readiness changed", slog.Bool("ready", ready))
}

// Liveness always answers 200 {"status":"ok"}.
func (h *Health) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readiness answers 200 when ready and all checks pass, 503 otherwise.
func (h *Health) Readiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.write(w, code, resp)
}

func (h *Health) write(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
