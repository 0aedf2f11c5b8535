package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pinger checks a dependency's liveness. Implemented by the Redis session
// store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP handlers for the ops endpoints.
type Handlers struct {
	store   Pinger
	botName string
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance. The store may be nil, in
// which case the readiness probe skips the session store check.
func NewHandlers(store Pinger, botName string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:   store,
		botName: botName,
		logger:  logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /ready requests. It reports 503 when the session
// store is unreachable.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK
	overall := "ready"

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.logger.Warn("readiness check failed",
				slog.String("check", "session_store"),
				slog.String("error", err.Error()),
			)
			checks["session_store"] = err.Error()
			status = http.StatusServiceUnavailable
			overall = "not_ready"
		} else {
			checks["session_store"] = "ok"
		}
	}

	writeJSON(w, status, ReadyResponse{
		Status: overall,
		Bot:    h.botName,
		Checks: checks,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
