package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/recruit-portal/internal/http/respond"
)

// HealthHandler returns uptime and the configured storage backend.
type HealthHandler struct {
	startedAt time.Time
	backend   string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, backend string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, backend: backend}
}

// Routes wires the handler into a router.
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", map[string]string{
		"status":  "ok",
		"storage": h.backend,
		"uptime":  time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
