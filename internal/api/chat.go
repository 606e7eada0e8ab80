package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/querychat/querychat/internal/chat"
	"github.com/querychat/querychat/internal/log"
)

// statusSessionExpired is sent when a session has no registered database
// connection, telling the client to reconnect rather than retry.
const statusSessionExpired = 440

// chatHandler handles the conversational analytics endpoints.
type chatHandler struct {
	service *chat.Service
	logger  log.Logger
}

// askRequest is the request body for one exchange.
type askRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

// ask runs one exchange: generate SQL, execute, explain, recommend a chart.
func (h *chatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	resp, err := h.service.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		h.writeAskError(w, req.SessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// suggestions returns exploration questions grounded in the session's schema.
func (h *chatHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	questions, err := h.service.Suggest(r.Context(), sessionID)
	if err != nil {
		h.writeAskError(w, sessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": questions})
}

// writeAskError maps orchestrator errors onto HTTP statuses. Exhausted SQL
// attempts surface as a client-visible failure carrying the last statement
// tried, so the UI can show what was attempted.
func (h *chatHandler) writeAskError(w http.ResponseWriter, sessionID string, err error) {
	var execErr *chat.ExecutionError

	switch {
	case errors.Is(err, chat.ErrMissingQuestion), errors.Is(err, chat.ErrMissingSession):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, chat.ErrSessionExpired):
		writeError(w, statusSessionExpired, "session_expired", err.Error())
	case errors.As(err, &execErr):
		h.logger.Error("exchange failed",
			"sessionId", sessionID,
			"attempts", execErr.Attempts,
			"error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "sql_execution_failed",
			Message: "There was an issue with the SQL generated for your question. Try rephrasing it.",
			Details: err.Error(),
			SQL:     execErr.SQL,
		})
	default:
		h.logger.Error("exchange failed", "sessionId", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
