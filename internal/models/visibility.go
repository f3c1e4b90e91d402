package models

// SuppressBooked hides every train sharing a (route, calendar date) pair
// with an existing booking. Once a train is booked on a route for a given
// day, alternatives for that route/day stop showing up on the planning
// surface; trains on other days or routes are unaffected. Bookings whose
// route reference was nulled out suppress nothing.
func SuppressBooked(trains []TrainView, bookings []Booking) []TrainView {
	type routeDay struct {
		routeID int64
		date    string
	}
	booked := make(map[routeDay]struct{}, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if b.RouteID == nil {
			continue
		}
		booked[routeDay{*b.RouteID, b.DepartureDate()}] = struct{}{}
	}
	if len(booked) == 0 {
		return trains
	}

	out := make([]TrainView, 0, len(trains))
	for i := range trains {
		t := &trains[i]
		if _, ok := booked[routeDay{t.RouteID, t.DepartureDate()}]; ok {
			continue
		}
		out = append(out, *t)
	}
	return out
}
