// Package handlers exposes the dashboard-facing HTTP API: station search,
// watched-route CRUD, train snapshot listing, bookings and the manual poll
// trigger. Each handler declares the repository interface it consumes; both
// store backends satisfy all of them.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// API bundles the resource handlers behind one router.
type API struct {
	Stations *StationHandler
	Routes   *RouteHandler
	Trains   *TrainHandler
	Bookings *BookingHandler
	Poll     *PollHandler
	Health   *HealthHandler
}

// Router assembles the chi router with CORS for the dashboard origin.
func (a *API) Router(corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", a.Health.Check)

	r.Get("/api/stations", a.Stations.Search)

	r.Get("/api/routes", a.Routes.List)
	r.Post("/api/routes", a.Routes.Create)
	r.Put("/api/routes/{id}", a.Routes.Update)
	r.Delete("/api/routes/{id}", a.Routes.Delete)

	r.Get("/api/trains", a.Trains.List)

	r.Get("/api/bookings", a.Bookings.List)
	r.Post("/api/bookings", a.Bookings.Create)
	r.Delete("/api/bookings/{id}", a.Bookings.Delete)

	r.Post("/api/refresh", a.Poll.Refresh)
	r.Get("/api/poll-logs", a.Poll.Logs)

	return r
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}
