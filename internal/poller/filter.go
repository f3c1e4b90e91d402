package poller

import (
	"strings"
	"time"

	"github.com/fysnerd/max-planner/internal/fetch"
)

// Filter applies the route policy to raw fetched records. A record passes
// iff its departure date equals the requested date exactly (sources may
// return neighboring-day trains), that date's weekday is allowed, and its
// HH:MM departure time sits within [timeMin, timeMax] inclusive. The weekday
// check repeats what the planner already selected; it is kept as defensive
// validation in case the two calendar computations ever disagree.
func Filter(trains []fetch.Train, date string, allowedDays []time.Weekday, timeMin, timeMax string) []fetch.Train {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	dayAllowed := false
	for _, d := range allowedDays {
		if d == day.Weekday() {
			dayAllowed = true
			break
		}
	}
	if !dayAllowed {
		return nil
	}

	out := make([]fetch.Train, 0, len(trains))
	for _, t := range trains {
		trainDate, _, _ := strings.Cut(t.DepartureTime, "T")
		if trainDate != date {
			continue
		}
		hhmm := departureHHMM(t.DepartureTime)
		if hhmm < timeMin || hhmm > timeMax {
			continue
		}
		out = append(out, t)
	}
	return out
}

// departureHHMM extracts the zero-padded HH:MM time-of-day of an ISO-8601
// timestamp. Malformed values default to "00:00" so comparisons never panic.
func departureHHMM(isoTime string) string {
	_, rest, ok := strings.Cut(isoTime, "T")
	if !ok || len(rest) < 5 {
		return "00:00"
	}
	return rest[:5]
}
