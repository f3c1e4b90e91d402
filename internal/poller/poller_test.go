package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fysnerd/max-planner/internal/config"
	"github.com/fysnerd/max-planner/internal/fetch"
	"github.com/fysnerd/max-planner/internal/models"
)

type fakeLog struct {
	id           string
	startedAt    time.Time
	finalized    bool
	status       string
	routesPolled int
	trainsFound  int
	errMsg       *string
}

type replacement struct {
	routeID   int64
	date      string
	snapshots []models.TrainSnapshot
}

type fakeStore struct {
	mu        sync.Mutex
	routes    []models.WatchedRoute
	routesErr error

	logs []fakeLog

	replacements []replacement
	replaceErr   error

	sweepCutoff string
	sweepErr    error
}

func (s *fakeStore) ListActiveRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	if s.routesErr != nil {
		return nil, s.routesErr
	}
	return s.routes, nil
}

func (s *fakeStore) CreatePollLog(ctx context.Context, startedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("log-%d", len(s.logs)+1)
	s.logs = append(s.logs, fakeLog{id: id, startedAt: startedAt})
	return id, nil
}

func (s *fakeStore) FinalizePollLog(ctx context.Context, id string, completedAt time.Time, status string, routesPolled, trainsFound int, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].id == id {
			s.logs[i].finalized = true
			s.logs[i].status = status
			s.logs[i].routesPolled = routesPolled
			s.logs[i].trainsFound = trainsFound
			s.logs[i].errMsg = errMsg
			return nil
		}
	}
	return fmt.Errorf("unknown poll log %s", id)
}

func (s *fakeStore) ReplaceSnapshots(ctx context.Context, routeID int64, date string, snapshots []models.TrainSnapshot) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replacements = append(s.replacements, replacement{routeID: routeID, date: date, snapshots: snapshots})
	return nil
}

func (s *fakeStore) DeleteSnapshotsBefore(ctx context.Context, cutoff string) (int64, error) {
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}
	s.sweepCutoff = cutoff
	return 0, nil
}

type providerFunc func(ctx context.Context, origin, destination, date string) (*fetch.Result, error)

func (f providerFunc) Fetch(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
	return f(ctx, origin, destination, date)
}

// mondayRoute watches a single weekday so a 7-day horizon yields exactly one
// task per route.
func mondayRoute(id int64) models.WatchedRoute {
	return models.WatchedRoute{
		ID:               id,
		OriginCode:       "FRPAR",
		DestinationCode:  "FRLYS",
		Label:            "Paris -> Lyon",
		DaysOfWeek:       []time.Weekday{time.Monday},
		DepartureTimeMin: "00:00",
		DepartureTimeMax: "23:59",
		AlertThreshold:   20,
		IsActive:         true,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		HorizonDays:   7,
		FetchDelay:    0,
		FetchTimeout:  time.Second,
		RetentionDays: 7,
	}
}

// 2025-06-02 is a Monday.
var testNow = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func newTestPoller(store *fakeStore, provider fetch.Provider) *Poller {
	p := New(store, provider, testConfig())
	p.now = func() time.Time { return testNow }
	p.pacer.now = func() time.Time { return testNow }
	p.pacer.sleep = func(context.Context, time.Duration) {}
	return p
}

func TestRunRecordsCompletedLog(t *testing.T) {
	store := &fakeStore{routes: []models.WatchedRoute{mondayRoute(1)}}
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		return &fetch.Result{Source: fetch.SourcePrimary, Trains: []fetch.Train{
			{TrainNumber: "6603", TrainType: "TGV", DepartureTime: date + "T07:06", ArrivalTime: date + "T09:02", SeatsAvailable: -1},
			{TrainNumber: "6611", DepartureTime: date + "T10:46", ArrivalTime: date + "T12:40", SeatsAvailable: 0},
		}}, nil
	})

	p := newTestPoller(store, provider)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.logs) != 1 {
		t.Fatalf("expected 1 poll log, got %d", len(store.logs))
	}
	pl := store.logs[0]
	if !pl.finalized || pl.status != models.PollStatusCompleted {
		t.Fatalf("log not finalized as completed: %+v", pl)
	}
	if pl.routesPolled != 1 || pl.trainsFound != 2 {
		t.Fatalf("counts = (%d, %d), want (1, 2)", pl.routesPolled, pl.trainsFound)
	}
	if pl.errMsg != nil {
		t.Fatalf("completed log should carry no error, got %q", *pl.errMsg)
	}

	if len(store.replacements) != 1 {
		t.Fatalf("expected 1 snapshot replacement, got %d", len(store.replacements))
	}
	rep := store.replacements[0]
	if rep.routeID != 1 || rep.date != "2025-06-02" {
		t.Fatalf("replacement target = (%d, %s)", rep.routeID, rep.date)
	}
	if len(rep.snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(rep.snapshots))
	}
	first := rep.snapshots[0]
	if first.DepartureTime != "2025-06-02T07:06" || !first.Seats.Available() {
		t.Fatalf("unexpected first snapshot: %+v", first)
	}
	if first.TrainType == nil || *first.TrainType != "TGV" {
		t.Fatalf("train type not preserved: %+v", first.TrainType)
	}
	if rep.snapshots[1].TrainType != nil {
		t.Fatalf("empty train type should map to nil, got %q", *rep.snapshots[1].TrainType)
	}

	wantCutoff := testNow.AddDate(0, 0, -7).Format("2006-01-02T15:04:05")
	if store.sweepCutoff != wantCutoff {
		t.Fatalf("sweep cutoff = %q, want %q", store.sweepCutoff, wantCutoff)
	}
}

func TestRunContinuesAfterFetchFailure(t *testing.T) {
	store := &fakeStore{routes: []models.WatchedRoute{mondayRoute(1), mondayRoute(2)}}
	var calls int
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("scraper timed out")
		}
		return &fetch.Result{Source: fetch.SourceFallback, Trains: []fetch.Train{
			{TrainNumber: "6607", DepartureTime: date + "T08:00", ArrivalTime: date + "T10:00", SeatsAvailable: -1},
		}}, nil
	})

	p := newTestPoller(store, provider)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run should absorb per-task fetch failures, got %v", err)
	}

	pl := store.logs[0]
	if pl.status != models.PollStatusCompleted {
		t.Fatalf("status = %s, want completed", pl.status)
	}
	if pl.routesPolled != 2 || pl.trainsFound != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", pl.routesPolled, pl.trainsFound)
	}
	if len(store.replacements) != 1 || store.replacements[0].routeID != 2 {
		t.Fatalf("only route 2 should have been replaced, got %+v", store.replacements)
	}
}

func TestRunReplacesWithEmptySet(t *testing.T) {
	route := mondayRoute(1)
	route.DepartureTimeMin = "06:00"
	route.DepartureTimeMax = "10:00"
	store := &fakeStore{routes: []models.WatchedRoute{route}}
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		// All departures fall outside the route's time window.
		return &fetch.Result{Source: fetch.SourcePrimary, Trains: []fetch.Train{
			{TrainNumber: "6625", DepartureTime: date + "T18:00", ArrivalTime: date + "T20:00", SeatsAvailable: -1},
		}}, nil
	})

	p := newTestPoller(store, provider)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.replacements) != 1 {
		t.Fatalf("expected a replacement even with zero qualifying trains, got %d", len(store.replacements))
	}
	if n := len(store.replacements[0].snapshots); n != 0 {
		t.Fatalf("expected empty snapshot set, got %d", n)
	}
	if store.logs[0].trainsFound != 0 {
		t.Fatalf("trainsFound = %d, want 0", store.logs[0].trainsFound)
	}
}

func TestRunSingleFlight(t *testing.T) {
	store := &fakeStore{routes: []models.WatchedRoute{mondayRoute(1)}}
	release := make(chan struct{})
	entered := make(chan struct{})
	var enterOnce sync.Once
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		enterOnce.Do(func() { close(entered) })
		<-release
		return &fetch.Result{Source: fetch.SourcePrimary}, nil
	})

	p := newTestPoller(store, provider)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	<-entered

	if err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("concurrent Run = %v, want ErrAlreadyRunning", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}

	store.mu.Lock()
	nlogs := len(store.logs)
	store.mu.Unlock()
	if nlogs != 1 {
		t.Fatalf("rejected run must not create a poll log, got %d logs", nlogs)
	}

	// With the first run finished the lock is released again.
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run after completion: %v", err)
	}
}

func TestRunNoActiveRoutes(t *testing.T) {
	store := &fakeStore{}
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		t.Fatal("provider must not be called without active routes")
		return nil, nil
	})

	p := newTestPoller(store, provider)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	pl := store.logs[0]
	if pl.status != models.PollStatusCompleted || pl.routesPolled != 0 || pl.trainsFound != 0 {
		t.Fatalf("unexpected log for empty run: %+v", pl)
	}
}

func TestRunStoreFailureFinalizesError(t *testing.T) {
	store := &fakeStore{
		routes:     []models.WatchedRoute{mondayRoute(1)},
		replaceErr: errors.New("disk full"),
	}
	provider := providerFunc(func(ctx context.Context, origin, destination, date string) (*fetch.Result, error) {
		return &fetch.Result{Source: fetch.SourcePrimary, Trains: []fetch.Train{
			{TrainNumber: "6603", DepartureTime: date + "T07:06", ArrivalTime: date + "T09:02", SeatsAvailable: -1},
		}}, nil
	})

	p := newTestPoller(store, provider)
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run should surface the store failure")
	}

	pl := store.logs[0]
	if !pl.finalized || pl.status != models.PollStatusError {
		t.Fatalf("log not finalized as error: %+v", pl)
	}
	if pl.errMsg == nil {
		t.Fatal("error log must carry a message")
	}
	// The failing task was already counted as attempted.
	if pl.routesPolled != 1 || pl.trainsFound != 0 {
		t.Fatalf("counts = (%d, %d), want (1, 0)", pl.routesPolled, pl.trainsFound)
	}
}
