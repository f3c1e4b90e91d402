package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/repository"
)

type fakeTrainRepo struct {
	trains   []models.TrainView
	bookings []models.Booking

	query        repository.TrainQuery
	bookingsRead bool
}

func (f *fakeTrainRepo) ListTrains(ctx context.Context, q repository.TrainQuery) ([]models.TrainView, error) {
	f.query = q
	return f.trains, nil
}

func (f *fakeTrainRepo) ListBookingsBetween(ctx context.Context, from, to string) ([]models.Booking, error) {
	f.bookingsRead = true
	return f.bookings, nil
}

func trainView(routeID int64, trainNumber, departure string) models.TrainView {
	return models.TrainView{
		TrainSnapshot: models.TrainSnapshot{
			RouteID:       routeID,
			TrainNumber:   trainNumber,
			DepartureTime: departure,
			ArrivalTime:   departure[:11] + "23:59",
			Seats:         models.SeatsAvailableUnknown(),
		},
		RouteLabel:     "Paris -> Lyon",
		OriginCode:     "FRPAR",
		AlertThreshold: 20,
	}
}

func TestTrainListSuppressesBookedDays(t *testing.T) {
	routeID := int64(3)
	repo := &fakeTrainRepo{
		trains: []models.TrainView{
			trainView(3, "6603", "2999-06-02T07:06"),
			trainView(3, "6607", "2999-06-02T08:00"),
			trainView(3, "6611", "2999-06-03T07:06"),
			trainView(5, "7801", "2999-06-02T07:30"),
		},
		bookings: []models.Booking{
			{TrainNumber: "6603", DepartureTime: "2999-06-02T07:06", RouteID: &routeID},
		},
	}
	h := NewTrainHandler(repo)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/trains", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ListTrainsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Route 3 on 2999-06-02 is booked: both of its trains that day disappear,
	// the other day and the other route stay.
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2: %+v", resp.Count, resp.Trains)
	}
	want := map[string]bool{"6611": true, "7801": true}
	for _, tr := range resp.Trains {
		if !want[tr.TrainNumber] {
			t.Fatalf("train %s should have been suppressed", tr.TrainNumber)
		}
	}
}

func TestTrainListIncludeBooked(t *testing.T) {
	routeID := int64(3)
	repo := &fakeTrainRepo{
		trains: []models.TrainView{
			trainView(3, "6603", "2999-06-02T07:06"),
		},
		bookings: []models.Booking{
			{TrainNumber: "6603", DepartureTime: "2999-06-02T07:06", RouteID: &routeID},
		},
	}
	h := NewTrainHandler(repo)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/trains?includeBooked=1", nil))

	var resp ListTrainsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1 with includeBooked", resp.Count)
	}
	if repo.bookingsRead {
		t.Fatal("bookings should not be loaded when includeBooked is set")
	}
}

func TestTrainListQueryParams(t *testing.T) {
	repo := &fakeTrainRepo{}
	h := NewTrainHandler(repo)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/trains?routeId=7&date=2025-06-02&limit=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.query.RouteID == nil || *repo.query.RouteID != 7 {
		t.Fatalf("routeId not passed: %+v", repo.query)
	}
	if repo.query.Date != "2025-06-02" || repo.query.Limit != 50 {
		t.Fatalf("query = %+v", repo.query)
	}
	if repo.query.From == "" {
		t.Fatal("From bound should default to the current time")
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/trains?routeId=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for non-numeric routeId", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/trains?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for limit below 1", rec.Code)
	}
}
