package handlers

import (
	"context"
	"net/http"

	"github.com/fysnerd/max-planner/internal/models"
)

// StationRepository defines the interface for station reference data
type StationRepository interface {
	SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error)
}

// StationHandler handles HTTP requests for station lookup
type StationHandler struct {
	repo StationRepository
}

// NewStationHandler creates a new handler with the given repository
func NewStationHandler(repo StationRepository) *StationHandler {
	return &StationHandler{repo: repo}
}

// Search handles GET /api/stations?q=
// With a query it returns up to 20 matches by name or code; without one it
// lists every station ordered by name.
func (h *StationHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 20
	if q == "" {
		limit = 1000
	}

	stations, err := h.repo.SearchStations(r.Context(), q, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to search stations")
		return
	}
	if stations == nil {
		stations = []models.Station{}
	}
	respondJSON(w, http.StatusOK, stations)
}
