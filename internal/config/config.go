package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the tracker service
type Config struct {
	// Persistence. DatabaseURL selects the Postgres backend when set;
	// otherwise the SQLite file at DatabasePath is used.
	DatabasePath string
	DatabaseURL  string

	// Polling
	PollInterval  time.Duration
	HorizonDays   int
	FetchDelay    time.Duration
	FetchTimeout  time.Duration
	RetentionDays int

	// Fetch provider (scraper subprocess + open data fallback)
	PythonBin   string
	FetchScript string
	OpenDataURL string

	// HTTP API
	Port       string
	CORSOrigin string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DatabasePath: getEnv("SQLITE_DATABASE", "data/maxplanner.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_MINUTES", 5)) * time.Minute,
		HorizonDays:   getEnvInt("HORIZON_DAYS", 30),
		FetchDelay:    time.Duration(getEnvInt("FETCH_DELAY_MS", 2000)) * time.Millisecond,
		FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 120)) * time.Second,
		RetentionDays: getEnvInt("RETENTION_DAYS", 7),

		PythonBin:   getEnv("PYTHON_BIN", "python3"),
		FetchScript: getEnv("FETCH_SCRIPT", "scripts/fetch_sncf.py"),
		OpenDataURL: getEnv("OPENDATA_URL", "https://data.sncf.com/api/explore/v2.1/catalog/datasets/tgvmax/records"),

		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
