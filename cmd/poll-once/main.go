// Command poll-once runs a single poll cycle and exits. Useful for cron
// setups that prefer an external scheduler over the in-process ticker, and
// for smoke-testing a fetch configuration.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/fysnerd/max-planner/internal/config"
	"github.com/fysnerd/max-planner/internal/fetch"
	"github.com/fysnerd/max-planner/internal/poller"
	"github.com/fysnerd/max-planner/internal/repository"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()
	ctx := context.Background()

	var (
		st  poller.Store
		err error
	)
	if cfg.DatabaseURL != "" {
		var pg *repository.PostgresStore
		pg, err = repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			defer pg.Close()
			st = pg
		}
	} else {
		var lite *repository.SQLiteStore
		lite, err = repository.OpenSQLite(cfg.DatabasePath)
		if err == nil {
			defer lite.Close()
			st = lite
		}
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	provider := fetch.NewChain(
		fetch.NewScriptProvider(cfg.PythonBin, cfg.FetchScript),
		fetch.NewOpenDataProvider(cfg.OpenDataURL),
	)

	if err := poller.New(st, provider, cfg).Run(ctx); err != nil {
		log.Fatalf("Poll run failed: %v", err)
	}
}
