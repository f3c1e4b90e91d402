package models

import "time"

// TrainSnapshot is one train availability row cached for a (route, date)
// pair. Snapshots are a point-in-time cache: every re-poll of the pair
// deletes and replaces the whole set, never updates rows in place.
type TrainSnapshot struct {
	ID          int64   `db:"id" json:"id"`
	RouteID     int64   `db:"route_id" json:"routeId"`
	TrainNumber string  `db:"train_number" json:"trainNumber"`
	TrainType   *string `db:"train_type" json:"trainType"`

	// Departure and arrival are kept as the provider's ISO-8601 strings
	// end-to-end. They are zero-padded, so lexicographic comparison is
	// chronological, and re-polling an unchanged feed writes byte-identical
	// rows.
	DepartureTime string `db:"departure_time" json:"departureTime"`
	ArrivalTime   string `db:"arrival_time" json:"arrivalTime"`

	Seats     SeatCount `db:"seats_available" json:"seatsAvailable"`
	FetchedAt time.Time `db:"fetched_at" json:"fetchedAt"`
}

// DepartureDate returns the YYYY-MM-DD component of the departure time.
func (s *TrainSnapshot) DepartureDate() string {
	return DateOf(s.DepartureTime)
}

// DateOf extracts the YYYY-MM-DD date component of an ISO-8601 timestamp.
func DateOf(isoTime string) string {
	if len(isoTime) < 10 {
		return isoTime
	}
	return isoTime[:10]
}

// TrainView is a snapshot joined with its route and station names, the shape
// served to the dashboard.
type TrainView struct {
	TrainSnapshot
	RouteLabel      string `json:"routeLabel"`
	OriginCode      string `json:"originCode"`
	DestinationCode string `json:"destinationCode"`
	OriginName      string `json:"originName"`
	DestinationName string `json:"destinationName"`
	AlertThreshold  int    `json:"alertThreshold"`
}

// Alerting reports whether the train's known seat count sits under its
// route's alert threshold.
func (t *TrainView) Alerting() bool {
	return t.Seats.Below(t.AlertThreshold)
}
