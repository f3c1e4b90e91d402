// Package poller drives the fetch-filter-reconcile cycle over every watched
// route and qualifying date. At most one run executes at a time; each run is
// recorded as a PollLog row created at start and finalized on every exit
// path.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/fysnerd/max-planner/internal/config"
	"github.com/fysnerd/max-planner/internal/fetch"
	"github.com/fysnerd/max-planner/internal/models"
)

// ErrAlreadyRunning reports that a poll request arrived while a run was in
// progress. The request is a no-op by design, not a failure: no PollLog row
// is created and the in-progress run is unaffected.
var ErrAlreadyRunning = errors.New("poll already running")

// Store is the persistence surface the poller needs.
type Store interface {
	ListActiveRoutes(ctx context.Context) ([]models.WatchedRoute, error)

	// CreatePollLog inserts a running log row and returns its id.
	CreatePollLog(ctx context.Context, startedAt time.Time) (string, error)
	FinalizePollLog(ctx context.Context, id string, completedAt time.Time, status string, routesPolled, trainsFound int, errMsg *string) error

	// ReplaceSnapshots atomically deletes all snapshots for (routeID, date)
	// and inserts the given set, which may be empty.
	ReplaceSnapshots(ctx context.Context, routeID int64, date string, snapshots []models.TrainSnapshot) error

	// DeleteSnapshotsBefore removes every snapshot departing before the
	// cutoff (ISO-8601 string compare), across all routes.
	DeleteSnapshotsBefore(ctx context.Context, cutoff string) (int64, error)
}

// Poller owns the single-flight guarantee and the sequential task loop.
type Poller struct {
	store    Store
	provider fetch.Provider
	cfg      *config.Config
	pacer    *Pacer
	running  atomic.Bool

	// Injectable for tests.
	now func() time.Time
}

// New creates a poller over the given store and fetch provider.
func New(store Store, provider fetch.Provider, cfg *config.Config) *Poller {
	return &Poller{
		store:    store,
		provider: provider,
		cfg:      cfg,
		pacer:    NewPacer(cfg.FetchDelay),
		now:      time.Now,
	}
}

// Run executes one poll cycle. It returns ErrAlreadyRunning when a cycle is
// already in progress, the run-level error when the cycle aborted (also
// recorded on the PollLog row), and nil otherwise. Per-task fetch failures
// never surface here; they are logged and the run continues.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		log.Println("[Poller] already polling, skipping")
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	runID, err := p.store.CreatePollLog(ctx, p.now().UTC())
	if err != nil {
		// Could not even record the run; nothing to finalize.
		return fmt.Errorf("failed to create poll log: %w", err)
	}

	var routesPolled, trainsFound int
	runErr := p.run(ctx, &routesPolled, &trainsFound)

	completedAt := p.now().UTC()
	if runErr != nil {
		msg := runErr.Error()
		log.Printf("[Poller] run failed: %v", runErr)
		if ferr := p.store.FinalizePollLog(ctx, runID, completedAt, models.PollStatusError, routesPolled, trainsFound, &msg); ferr != nil {
			log.Printf("[Poller] failed to finalize poll log %s: %v", runID, ferr)
		}
		return runErr
	}

	if err := p.store.FinalizePollLog(ctx, runID, completedAt, models.PollStatusCompleted, routesPolled, trainsFound, nil); err != nil {
		return fmt.Errorf("failed to finalize poll log: %w", err)
	}
	log.Printf("[Poller] done: %d route-dates polled, %d trains found", routesPolled, trainsFound)
	return nil
}

// run is the fallible region of a cycle: any error returned here aborts the
// remaining tasks and is recorded as a status=error run with whatever counts
// accumulated so far.
func (p *Poller) run(ctx context.Context, routesPolled, trainsFound *int) error {
	routes, err := p.store.ListActiveRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active routes: %w", err)
	}
	if len(routes) == 0 {
		log.Println("[Poller] no active routes to poll")
		return nil
	}

	tasks := Plan(routes, p.now(), p.cfg.HorizonDays)
	log.Printf("[Poller] %d route-date combinations to fetch (sequential)", len(tasks))

	p.pacer.Reset()
	for i, task := range tasks {
		p.pacer.Wait(ctx)

		route := task.Route
		log.Printf("[Poller] [%d/%d] %s -> %s on %s",
			i+1, len(tasks), route.OriginCode, route.DestinationCode, task.Date)

		// The task counts as attempted whatever the fetch outcome.
		*routesPolled++

		result, err := p.fetchTask(ctx, &route, task.Date)
		if err != nil {
			log.Printf("[Poller]   FAILED %s->%s %s: %v",
				route.OriginCode, route.DestinationCode, task.Date, err)
			continue
		}
		log.Printf("[Poller]   source=%s, %d trains returned", result.Source, len(result.Trains))

		filtered := Filter(result.Trains, task.Date, route.DaysOfWeek, route.DepartureTimeMin, route.DepartureTimeMax)

		snapshots := make([]models.TrainSnapshot, 0, len(filtered))
		fetchedAt := p.now().UTC()
		for _, t := range filtered {
			var trainType *string
			if t.TrainType != "" {
				tt := t.TrainType
				trainType = &tt
			}
			snapshots = append(snapshots, models.TrainSnapshot{
				RouteID:       route.ID,
				TrainNumber:   t.TrainNumber,
				TrainType:     trainType,
				DepartureTime: t.DepartureTime,
				ArrivalTime:   t.ArrivalTime,
				Seats:         models.SeatCountFromInt(t.SeatsAvailable),
				FetchedAt:     fetchedAt,
			})
		}

		// Replace even when the filtered set is empty: a route/date with no
		// qualifying trains anymore must clear its stale rows.
		if err := p.store.ReplaceSnapshots(ctx, route.ID, task.Date, snapshots); err != nil {
			return fmt.Errorf("failed to replace snapshots for route %d on %s: %w", route.ID, task.Date, err)
		}
		*trainsFound += len(snapshots)
	}

	// Global retention sweep: drop snapshots whose departure is further in
	// the past than the retention window, across all routes.
	cutoff := p.now().AddDate(0, 0, -p.cfg.RetentionDays).Format("2006-01-02T15:04:05")
	deleted, err := p.store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep expired snapshots: %w", err)
	}
	if deleted > 0 {
		log.Printf("[Poller] sweep: deleted %d snapshots departing before %s", deleted, cutoff)
	}
	return nil
}

// fetchTask invokes the provider with the per-task timeout so one stuck call
// cannot stall the whole run.
func (p *Poller) fetchTask(ctx context.Context, route *models.WatchedRoute, date string) (*fetch.Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	return p.provider.Fetch(fetchCtx, route.OriginCode, route.DestinationCode, date)
}
