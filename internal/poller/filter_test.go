package poller

import (
	"testing"
	"time"

	"github.com/fysnerd/max-planner/internal/fetch"
)

var allWeek = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

func train(number, departure string) fetch.Train {
	return fetch.Train{TrainNumber: number, DepartureTime: departure, ArrivalTime: departure}
}

func TestFilterDropsNeighboringDays(t *testing.T) {
	trains := []fetch.Train{
		train("A", "2025-06-02T10:00"),
		train("B", "2025-06-01T10:00"), // day before, same time
		train("C", "2025-06-03T10:00"), // day after, same time
	}

	got := Filter(trains, "2025-06-02", allWeek, "00:00", "23:59")
	if len(got) != 1 || got[0].TrainNumber != "A" {
		t.Fatalf("expected only train A to survive, got %d trains", len(got))
	}
}

func TestFilterTimeWindowInclusive(t *testing.T) {
	tests := []struct {
		departure string
		want      bool
	}{
		{"2025-06-02T05:55", false},
		{"2025-06-02T06:00", true}, // exactly timeMin
		{"2025-06-02T06:05", true},
		{"2025-06-02T22:00", true}, // exactly timeMax
		{"2025-06-02T22:01", false},
	}

	for _, tc := range tests {
		got := Filter([]fetch.Train{train("X", tc.departure)}, "2025-06-02", allWeek, "06:00", "22:00")
		if (len(got) == 1) != tc.want {
			t.Errorf("departure %s: included=%v, expected %v", tc.departure, len(got) == 1, tc.want)
		}
	}
}

func TestFilterMorningWindowScenario(t *testing.T) {
	// Provider returns a 05:55 and a 06:05 train; only the 06:05 one fits
	// the 06:00-22:00 window.
	trains := []fetch.Train{
		train("2501", "2025-06-02T05:55"),
		train("2503", "2025-06-02T06:05"),
	}
	got := Filter(trains, "2025-06-02", allWeek, "06:00", "22:00")
	if len(got) != 1 || got[0].TrainNumber != "2503" {
		t.Fatalf("expected only the 06:05 train, got %d trains", len(got))
	}
}

func TestFilterDisallowedWeekday(t *testing.T) {
	// 2025-06-02 is a Monday; a Tuesday-only route rejects the whole batch
	// even though the planner should never have asked for this date.
	trains := []fetch.Train{train("A", "2025-06-02T10:00")}
	if got := Filter(trains, "2025-06-02", []time.Weekday{time.Tuesday}, "00:00", "23:59"); len(got) != 0 {
		t.Fatalf("expected weekday re-check to reject all trains, got %d", len(got))
	}
}

func TestFilterMalformedTimeDefaults(t *testing.T) {
	// A record with no parsable time component defaults to 00:00: inside a
	// window starting at midnight, outside any later window.
	trains := []fetch.Train{{TrainNumber: "A", DepartureTime: "2025-06-02"}}

	if got := Filter(trains, "2025-06-02", allWeek, "00:00", "23:59"); len(got) != 1 {
		t.Errorf("malformed time should default to 00:00 and pass a full-day window")
	}
	if got := Filter(trains, "2025-06-02", allWeek, "06:00", "22:00"); len(got) != 0 {
		t.Errorf("malformed time should default to 00:00 and fail a 06:00+ window")
	}
}

func TestFilterMalformedDate(t *testing.T) {
	if got := Filter([]fetch.Train{train("A", "junk")}, "not-a-date", allWeek, "00:00", "23:59"); got != nil {
		t.Fatalf("unparsable requested date should yield no trains")
	}
}
