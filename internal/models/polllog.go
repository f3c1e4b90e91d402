package models

import "time"

// Poll run statuses. A run is created as running and finalized exactly once;
// a row left in running with no completedAt is the durable signal of a
// crashed run.
const (
	PollStatusRunning   = "running"
	PollStatusCompleted = "completed"
	PollStatusError     = "error"
)

// PollLog is the audit record of one poll invocation. Exactly one row per
// run; never deleted automatically.
type PollLog struct {
	ID          string     `db:"id" json:"id"`
	StartedAt   time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	Status      string     `db:"status" json:"status"`

	// RoutesPolled counts route-date tasks attempted, not distinct routes.
	RoutesPolled int `db:"routes_polled" json:"routesPolled"`
	// TrainsFound counts snapshot rows written across the run.
	TrainsFound int     `db:"trains_found" json:"trainsFound"`
	Error       *string `db:"error" json:"error"`
}
