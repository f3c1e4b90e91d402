package models

import "time"

// WatchedRoute is a user-configured origin/destination pair with day-of-week
// and departure time-window filters. It is the unit of subscription for the
// poller: every active route is expanded into one fetch task per qualifying
// calendar date.
type WatchedRoute struct {
	ID              int64  `db:"id" json:"id"`
	OriginCode      string `db:"origin_code" json:"originCode"`
	DestinationCode string `db:"destination_code" json:"destinationCode"`
	Label           string `db:"label" json:"label"`

	// DaysOfWeek uses Go weekday numbering (0=Sunday..6=Saturday), stored as
	// a JSON integer array only at the persistence boundary. An empty set
	// means the route is never planned, even while active.
	DaysOfWeek []time.Weekday `db:"days_of_week" json:"daysOfWeek"`

	// Inclusive HH:MM departure window, zero-padded 24h so the bounds are
	// string-comparable.
	DepartureTimeMin string `db:"departure_time_min" json:"departureTimeMin"`
	DepartureTimeMax string `db:"departure_time_max" json:"departureTimeMax"`

	AlertThreshold int       `db:"alert_threshold" json:"alertThreshold"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`

	// Joined station names, populated by list queries only.
	OriginName      string `db:"-" json:"originName,omitempty"`
	DestinationName string `db:"-" json:"destinationName,omitempty"`
}

// NormalizeDays drops duplicate weekdays while preserving the given order.
func NormalizeDays(days []time.Weekday) []time.Weekday {
	seen := [7]bool{}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// HasDay reports whether the route watches the given weekday.
func (r *WatchedRoute) HasDay(d time.Weekday) bool {
	for _, day := range r.DaysOfWeek {
		if day == d {
			return true
		}
	}
	return false
}
