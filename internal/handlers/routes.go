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

// RouteRepository defines the interface for watched-route CRUD
type RouteRepository interface {
	ListRoutes(ctx context.Context) ([]models.WatchedRoute, error)
	GetRoute(ctx context.Context, id int64) (*models.WatchedRoute, error)
	CreateRoute(ctx context.Context, route *models.WatchedRoute) error
	UpdateRoute(ctx context.Context, route *models.WatchedRoute) error
	DeleteRoute(ctx context.Context, id int64) error
}

// RouteHandler handles HTTP requests for watched routes
type RouteHandler struct {
	repo RouteRepository
}

// NewRouteHandler creates a new handler with the given repository
func NewRouteHandler(repo RouteRepository) *RouteHandler {
	return &RouteHandler{repo: repo}
}

// routeRequest carries creatable/updatable route fields. Pointer fields
// distinguish "absent" from zero values on partial updates.
type routeRequest struct {
	OriginCode       *string         `json:"originCode"`
	DestinationCode  *string         `json:"destinationCode"`
	Label            *string         `json:"label"`
	DaysOfWeek       *[]time.Weekday `json:"daysOfWeek"`
	DepartureTimeMin *string         `json:"departureTimeMin"`
	DepartureTimeMax *string         `json:"departureTimeMax"`
	AlertThreshold   *int            `json:"alertThreshold"`
	IsActive         *bool           `json:"isActive"`
}

func (req *routeRequest) apply(route *models.WatchedRoute) {
	if req.OriginCode != nil {
		route.OriginCode = *req.OriginCode
	}
	if req.DestinationCode != nil {
		route.DestinationCode = *req.DestinationCode
	}
	if req.Label != nil {
		route.Label = *req.Label
	}
	if req.DaysOfWeek != nil {
		route.DaysOfWeek = models.NormalizeDays(*req.DaysOfWeek)
	}
	if req.DepartureTimeMin != nil {
		route.DepartureTimeMin = *req.DepartureTimeMin
	}
	if req.DepartureTimeMax != nil {
		route.DepartureTimeMax = *req.DepartureTimeMax
	}
	if req.AlertThreshold != nil {
		route.AlertThreshold = *req.AlertThreshold
	}
	if req.IsActive != nil {
		route.IsActive = *req.IsActive
	}
}

// List handles GET /api/routes
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.repo.ListRoutes(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list routes")
		return
	}
	if routes == nil {
		routes = []models.WatchedRoute{}
	}
	respondJSON(w, http.StatusOK, routes)
}

// Create handles POST /api/routes
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OriginCode == nil || *req.OriginCode == "" ||
		req.DestinationCode == nil || *req.DestinationCode == "" ||
		req.Label == nil || *req.Label == "" {
		respondError(w, http.StatusBadRequest, "originCode, destinationCode, and label are required")
		return
	}

	route := models.WatchedRoute{
		DaysOfWeek:       []time.Weekday{},
		DepartureTimeMin: "00:00",
		DepartureTimeMax: "23:59",
		AlertThreshold:   20,
		IsActive:         true,
	}
	req.apply(&route)

	if err := h.repo.CreateRoute(r.Context(), &route); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create route")
		return
	}
	respondJSON(w, http.StatusCreated, route)
}

// Update handles PUT /api/routes/{id} with partial field semantics
func (h *RouteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid route id")
		return
	}

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	route, err := h.repo.GetRoute(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "route not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load route")
		return
	}

	req.apply(route)
	if err := h.repo.UpdateRoute(r.Context(), route); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update route")
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// Delete handles DELETE /api/routes/{id}
// The route's snapshots go with it; bookings keep a nulled route reference.
func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid route id")
		return
	}
	if err := h.repo.DeleteRoute(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "route not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete route")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
