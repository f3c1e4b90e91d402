package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/repository"
)

// BookingRepository defines the interface for reservation persistence
type BookingRepository interface {
	ListBookingsBetween(ctx context.Context, from, to string) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
}

// BookingHandler handles HTTP requests for weekly reservations
type BookingHandler struct {
	repo BookingRepository
}

// NewBookingHandler creates a new handler with the given repository
func NewBookingHandler(repo BookingRepository) *BookingHandler {
	return &BookingHandler{repo: repo}
}

// List handles GET /api/bookings?weekStart=YYYY-MM-DD
// Defaults to next week's Monday when weekStart is absent.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	weekStart := r.URL.Query().Get("weekStart")

	var monday time.Time
	if weekStart != "" {
		var err error
		monday, err = time.Parse("2006-01-02", weekStart)
		if err != nil {
			respondError(w, http.StatusBadRequest, "weekStart must be YYYY-MM-DD")
			return
		}
	} else {
		monday = nextMonday(time.Now())
	}

	from := monday.Format("2006-01-02")
	to := monday.AddDate(0, 0, 7).Format("2006-01-02")

	bookings, err := h.repo.ListBookingsBetween(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

type bookingRequest struct {
	TrainNumber     string `json:"trainNumber"`
	DepartureTime   string `json:"departureTime"`
	ArrivalTime     string `json:"arrivalTime"`
	OriginCode      string `json:"originCode"`
	DestinationCode string `json:"destinationCode"`
	RouteID         *int64 `json:"routeId"`
}

// Create handles POST /api/bookings
// Returns 409 when the (trainNumber, departureTime) pair is already booked.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TrainNumber == "" || req.DepartureTime == "" || req.ArrivalTime == "" ||
		req.OriginCode == "" || req.DestinationCode == "" {
		respondError(w, http.StatusBadRequest,
			"trainNumber, departureTime, arrivalTime, originCode, destinationCode are required")
		return
	}

	booking := models.Booking{
		TrainNumber:     req.TrainNumber,
		DepartureTime:   req.DepartureTime,
		ArrivalTime:     req.ArrivalTime,
		OriginCode:      req.OriginCode,
		DestinationCode: req.DestinationCode,
		RouteID:         req.RouteID,
	}
	if err := h.repo.CreateBooking(r.Context(), &booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			respondError(w, http.StatusConflict, "already booked")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// Delete handles DELETE /api/bookings/{id}
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	if err := h.repo.DeleteBooking(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "booking not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete booking")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// nextMonday returns the Monday after now, at midnight.
func nextMonday(now time.Time) time.Time {
	day := int(now.Weekday()) // 0=Sunday
	diff := 8 - day
	if day == 0 {
		diff = 1
	}
	next := now.AddDate(0, 0, diff)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, now.Location())
}
