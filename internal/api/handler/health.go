package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/partyquiz/internal/api/response"
)

// pingTimeout bounds the storage check in Health
const pingTimeout = 2 * time.Second

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness endpoints
type HealthHandler struct {
	storage Pinger
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{storage: storage, logger: logger}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Error("storage health check failed", slog.String("error", err.Error()))
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable", Storage: "unreachable"})
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Server is running"))
}
