package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/metrics"
	"github.com/querychat/querychat/internal/registry"
)

// dbHandler handles database connection endpoints.
type dbHandler struct {
	registry *registry.Registry
	logger   log.Logger
}

// connectRequest is the request body for registering a session connection.
type connectRequest struct {
	SessionID string `json:"sessionId"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Password  string `json:"password"`
	Database  string `json:"database"`
}

func (req connectRequest) credentials() database.Credentials {
	return database.Credentials{
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		Database: req.Database,
	}
}

// connect registers a database connection for the given session. Repeated
// calls with the same session ID reuse the existing connection.
func (h *dbHandler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "sessionId is required")
		return
	}

	existed := h.registry.Exists(req.SessionID)

	if _, err := h.registry.Connect(r.Context(), req.SessionID, req.credentials()); err != nil {
		h.writeConnectError(w, err)
		return
	}

	if !existed {
		metrics.IncrementSessionConnected()
	}

	message := "Database connected successfully"
	if existed {
		message = "Reusing existing database connection"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"sessionId": req.SessionID,
		"reused":    existed,
	})
}

// test probes the supplied credentials without registering a connection.
func (h *dbHandler) test(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if err := database.Probe(r.Context(), req.credentials(), h.logger); err != nil {
		h.writeConnectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Database is reachable",
	})
}

// writeConnectError maps connection errors onto HTTP statuses: incomplete
// credentials are a client error, an unreachable database is an upstream one.
func (h *dbHandler) writeConnectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrMissingCredential):
		writeError(w, http.StatusBadRequest, "invalid_credentials", err.Error())
	case errors.Is(err, database.ErrConnectionFailed):
		h.logger.Error("database connection failed", "error", err)
		writeError(w, http.StatusBadGateway, "connection_failed", err.Error())
	default:
		h.logger.Error("database connection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
