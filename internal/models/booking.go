package models

import "time"

// Booking marks a train as reserved against the weekly discount-fare
// allotment. The train fields are a denormalized copy taken at booking time,
// not a live reference: the snapshot row it came from is routinely deleted
// and replaced by re-polling. RouteID is a weak reference that survives as
// null if the route is later deleted.
type Booking struct {
	ID              int64     `db:"id" json:"id"`
	TrainNumber     string    `db:"train_number" json:"trainNumber"`
	DepartureTime   string    `db:"departure_time" json:"departureTime"`
	ArrivalTime     string    `db:"arrival_time" json:"arrivalTime"`
	OriginCode      string    `db:"origin_code" json:"originCode"`
	DestinationCode string    `db:"destination_code" json:"destinationCode"`
	RouteID         *int64    `db:"route_id" json:"routeId"`
	BookedAt        time.Time `db:"booked_at" json:"bookedAt"`

	// Joined station names, populated by list queries only.
	OriginName      string `db:"-" json:"originName,omitempty"`
	DestinationName string `db:"-" json:"destinationName,omitempty"`
}

// DepartureDate returns the YYYY-MM-DD component of the departure time.
func (b *Booking) DepartureDate() string {
	return DateOf(b.DepartureTime)
}
