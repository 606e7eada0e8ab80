package api

import (
	"net/http"

	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/registry"
)

// healthHandler handles health check endpoints.
type healthHandler struct {
	registry *registry.Registry
	logger   log.Logger
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint. Database connections are
// per-session, so readiness reports the registry state rather than pinging
// a shared pool.
func (h *healthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.registry == nil {
		http.Error(w, "connection registry not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": h.registry.Count(),
	})
}
