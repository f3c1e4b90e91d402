// Command seed-stations imports station reference data from a YAML file:
//
//	stations:
//	  - code: FRPAR
//	    name: Paris (toutes gares)
//	  - code: FRLYS
//	    name: Lyon (toutes gares)
//
// Stations are upserted by code; the poller never touches them afterwards.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fysnerd/max-planner/internal/config"
	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/repository"
)

type seedFile struct {
	Stations []models.Station `yaml:"stations"`
}

type stationStore interface {
	UpsertStations(ctx context.Context, stations []models.Station) error
	Close() error
}

func main() {
	file := flag.String("file", "stations.yaml", "YAML file with station codes and names")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}
	if len(seed.Stations) == 0 {
		log.Fatalf("No stations found in %s", *file)
	}

	cfg := config.Load()
	ctx := context.Background()

	var st stationStore
	if cfg.DatabaseURL != "" {
		st, err = repository.OpenPostgres(ctx, cfg.DatabaseURL)
	} else {
		st, err = repository.OpenSQLite(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if err := st.UpsertStations(ctx, seed.Stations); err != nil {
		log.Fatalf("Failed to seed stations: %v", err)
	}
	log.Printf("Seeded %d stations from %s", len(seed.Stations), *file)
}
