package models

// Station is immutable reference data identifying a railway station by its
// booking-system code. Stations are created by seeding and never mutated by
// the poller.
type Station struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}
