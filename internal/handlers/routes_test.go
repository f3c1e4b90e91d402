package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/repository"
)

type fakeRouteRepo struct {
	routes map[int64]*models.WatchedRoute
	nextID int64
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{routes: map[int64]*models.WatchedRoute{}, nextID: 1}
}

func (f *fakeRouteRepo) ListRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	var out []models.WatchedRoute
	for _, r := range f.routes {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRouteRepo) GetRoute(ctx context.Context, id int64) (*models.WatchedRoute, error) {
	r, ok := f.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRouteRepo) CreateRoute(ctx context.Context, route *models.WatchedRoute) error {
	route.ID = f.nextID
	f.nextID++
	copied := *route
	f.routes[route.ID] = &copied
	return nil
}

func (f *fakeRouteRepo) UpdateRoute(ctx context.Context, route *models.WatchedRoute) error {
	if _, ok := f.routes[route.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *route
	f.routes[route.ID] = &copied
	return nil
}

func (f *fakeRouteRepo) DeleteRoute(ctx context.Context, id int64) error {
	if _, ok := f.routes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.routes, id)
	return nil
}

func routeRouter(repo RouteRepository) http.Handler {
	h := NewRouteHandler(repo)
	r := chi.NewRouter()
	r.Get("/api/routes", h.List)
	r.Post("/api/routes", h.Create)
	r.Put("/api/routes/{id}", h.Update)
	r.Delete("/api/routes/{id}", h.Delete)
	return r
}

func TestRouteCreateDefaults(t *testing.T) {
	repo := newFakeRouteRepo()
	router := routeRouter(repo)

	body := `{"originCode": "FRPAR", "destinationCode": "FRLYS", "label": "Paris -> Lyon"}`
	req := httptest.NewRequest(http.MethodPost, "/api/routes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got models.WatchedRoute
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID == 0 {
		t.Fatal("created route has no id")
	}
	if got.DepartureTimeMin != "00:00" || got.DepartureTimeMax != "23:59" {
		t.Fatalf("time window defaults not applied: %s - %s", got.DepartureTimeMin, got.DepartureTimeMax)
	}
	if got.AlertThreshold != 20 || !got.IsActive {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if got.DaysOfWeek == nil || len(got.DaysOfWeek) != 0 {
		t.Fatalf("days should default to an empty set, got %v", got.DaysOfWeek)
	}
}

func TestRouteCreateValidation(t *testing.T) {
	router := routeRouter(newFakeRouteRepo())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing origin", `{"destinationCode": "FRLYS", "label": "x"}`},
		{"empty label", `{"originCode": "FRPAR", "destinationCode": "FRLYS", "label": ""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/routes", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRouteUpdatePartial(t *testing.T) {
	repo := newFakeRouteRepo()
	repo.CreateRoute(context.Background(), &models.WatchedRoute{
		OriginCode:       "FRPAR",
		DestinationCode:  "FRLYS",
		Label:            "Paris -> Lyon",
		DaysOfWeek:       []time.Weekday{time.Monday, time.Friday},
		DepartureTimeMin: "06:00",
		DepartureTimeMax: "10:00",
		AlertThreshold:   20,
		IsActive:         true,
	})
	router := routeRouter(repo)

	req := httptest.NewRequest(http.MethodPut, "/api/routes/1", strings.NewReader(`{"isActive": false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	stored := repo.routes[1]
	if stored.IsActive {
		t.Fatal("isActive not updated")
	}
	// Omitted fields keep their values.
	if stored.Label != "Paris -> Lyon" || stored.DepartureTimeMin != "06:00" || len(stored.DaysOfWeek) != 2 {
		t.Fatalf("partial update clobbered fields: %+v", stored)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/routes/99", strings.NewReader(`{"isActive": false}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown route", rec.Code)
	}
}

func TestRouteDelete(t *testing.T) {
	repo := newFakeRouteRepo()
	repo.CreateRoute(context.Background(), &models.WatchedRoute{
		OriginCode: "FRPAR", DestinationCode: "FRLYS", Label: "Paris -> Lyon",
	})
	router := routeRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/routes/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.routes) != 0 {
		t.Fatal("route not deleted")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/routes/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 after delete", rec.Code)
	}
}
