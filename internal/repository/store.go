// Package repository persists watched routes, train snapshots, bookings,
// station reference data and poll run logs. Two backends implement the same
// surface: SQLite (default, single file) and Postgres (selected by
// DATABASE_URL). Consumers declare the interface slice they need; both
// concrete stores satisfy all of them.
package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/fysnerd/max-planner/internal/models"
)

var (
	// ErrNotFound is returned when a row lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateBooking is returned when a booking with the same
	// (trainNumber, departureTime) identity already exists.
	ErrDuplicateBooking = errors.New("booking already exists")
)

// TrainQuery filters the joined snapshot listing.
type TrainQuery struct {
	RouteID *int64
	Date    string // YYYY-MM-DD, empty for all dates
	From    string // ISO-8601 lower bound on departure, empty for none
	Limit   int
}

// timeLayout is the stored representation of entity timestamps (created_at,
// fetched_at, booked_at, started_at, completed_at). Train departure/arrival
// strings are stored verbatim as fetched and are not parsed.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// encodeDays serializes the weekday set as the JSON integer array stored in
// the days_of_week text column.
func encodeDays(days []time.Weekday) string {
	if days == nil {
		days = []time.Weekday{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeDays parses the stored JSON array. A malformed value yields an empty
// set, so a corrupted route configuration contributes zero tasks instead of
// crashing a poll run.
func decodeDays(raw string) []time.Weekday {
	var days []time.Weekday
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return []time.Weekday{}
	}
	return models.NormalizeDays(days)
}
