// Package fetch talks to the external seat-availability sources. Each fetch
// is expensive (the primary source spins up a full stealth-browser session),
// so providers must only ever be invoked sequentially; pacing between calls
// is the caller's job.
package fetch

import "context"

// Data sources a result can come from.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// Train is one availability record as returned by a source. SeatsAvailable
// carries the legacy tri-state encoding (-1 available/unknown count,
// 0 unavailable, positive exact count); it is decoded into models.SeatCount
// once inside the poller.
type Train struct {
	TrainNumber    string `json:"trainNumber"`
	TrainType      string `json:"trainType"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	SeatsAvailable int    `json:"seatsAvailable"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
}

// Result is the outcome of one fetch, tagged with the source that produced it.
type Result struct {
	Source string  `json:"source"`
	Trains []Train `json:"trains"`
}

// Provider fetches availability for one (origin, destination, date) task.
// date is formatted YYYY-MM-DD.
type Provider interface {
	Fetch(ctx context.Context, origin, destination, date string) (*Result, error)
}
