package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with a database connectivity probe
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new handler over the given database
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "error",
			"database":  "disconnected",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}
