package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fysnerd/max-planner/internal/config"
	"github.com/fysnerd/max-planner/internal/fetch"
	"github.com/fysnerd/max-planner/internal/handlers"
	"github.com/fysnerd/max-planner/internal/poller"
	"github.com/fysnerd/max-planner/internal/repository"
)

// store is the full persistence surface the server wires together. Both
// repository backends satisfy it.
type store interface {
	poller.Store
	handlers.StationRepository
	handlers.RouteRepository
	handlers.TrainRepository
	handlers.BookingRepository
	handlers.PollLogRepository
	handlers.Pinger
	Close() error
}

func main() {
	log.Println("Starting availability tracker...")

	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()
	log.Printf("Config loaded: poll_interval=%v, horizon=%dd, fetch_delay=%v",
		cfg.PollInterval, cfg.HorizonDays, cfg.FetchDelay)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	provider := fetch.NewChain(
		fetch.NewScriptProvider(cfg.PythonBin, cfg.FetchScript),
		fetch.NewOpenDataProvider(cfg.OpenDataURL),
	)
	p := poller.New(st, provider, cfg)

	api := &handlers.API{
		Stations: handlers.NewStationHandler(st),
		Routes:   handlers.NewRouteHandler(st),
		Trains:   handlers.NewTrainHandler(st),
		Bookings: handlers.NewBookingHandler(st),
		Poll:     handlers.NewPollHandler(p, st),
		Health:   handlers.NewHealthHandler(st),
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Router(cfg.CORSOrigin),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Scheduled polling: one immediate cycle, then the ticker. The manual
	// trigger shares the same single-flight poller.
	g.Go(func() error {
		runPoll(ctx, p)
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runPoll(ctx, p)
			case <-ctx.Done():
				log.Println("Polling loop stopped")
				return nil
			}
		}
	})

	g.Go(func() error {
		log.Printf("API server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	if cfg.DatabaseURL != "" {
		return repository.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return repository.OpenSQLite(cfg.DatabasePath)
}

func runPoll(ctx context.Context, p *poller.Poller) {
	if err := p.Run(ctx); err != nil && !errors.Is(err, poller.ErrAlreadyRunning) {
		log.Printf("Poll run error: %v", err)
	}
}
