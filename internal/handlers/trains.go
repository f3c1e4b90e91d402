package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/repository"
)

// TrainRepository defines the interface for snapshot listing
type TrainRepository interface {
	ListTrains(ctx context.Context, q repository.TrainQuery) ([]models.TrainView, error)
	ListBookingsBetween(ctx context.Context, from, to string) ([]models.Booking, error)
}

// TrainHandler handles HTTP requests for the availability dashboard
type TrainHandler struct {
	repo TrainRepository
}

// NewTrainHandler creates a new handler with the given repository
func NewTrainHandler(repo TrainRepository) *TrainHandler {
	return &TrainHandler{repo: repo}
}

// ListTrainsResponse is the JSON response structure for GET /api/trains
type ListTrainsResponse struct {
	Trains []models.TrainView `json:"trains"`
	Count  int                `json:"count"`
}

// List handles GET /api/trains?routeId=&date=&limit=&includeBooked=
// Returns upcoming snapshots ordered by seat count. Unless includeBooked is
// set, trains on a route/day already covered by a booking are suppressed.
func (h *TrainHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := repository.TrainQuery{
		From:  time.Now().Format("2006-01-02T15:04"),
		Limit: 200,
	}

	if v := r.URL.Query().Get("routeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid routeId")
			return
		}
		query.RouteID = &id
	}
	if v := r.URL.Query().Get("date"); v != "" {
		query.Date = v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = limit
	}

	trains, err := h.repo.ListTrains(ctx, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list trains")
		return
	}

	if r.URL.Query().Get("includeBooked") == "" {
		// Booking departure strings sort after the bare date, so "9999" is a
		// safe upper bound for "all future bookings".
		bookings, err := h.repo.ListBookingsBetween(ctx, models.DateOf(query.From), "9999")
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load bookings")
			return
		}
		trains = models.SuppressBooked(trains, bookings)
	}

	if trains == nil {
		trains = []models.TrainView{}
	}
	respondJSON(w, http.StatusOK, ListTrainsResponse{Trains: trains, Count: len(trains)})
}
