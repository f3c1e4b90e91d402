package models

import (
	"encoding/json"
	"strconv"
)

// SeatCount is the availability of discount-fare seats on one train.
// The upstream sources encode it as a tri-state integer: a positive value is
// an exact count, 0 means confirmed unavailable, and -1 means the train is
// available but the source does not disclose a count. Internally we keep the
// three cases explicit and only produce the legacy integer at the store and
// HTTP boundaries.
type SeatCount struct {
	available bool
	exact     bool
	count     int
}

// SeatsUnavailable reports a train confirmed to have no discount seats.
func SeatsUnavailable() SeatCount {
	return SeatCount{}
}

// SeatsAvailableUnknown reports an available train with no disclosed count.
func SeatsAvailableUnknown() SeatCount {
	return SeatCount{available: true}
}

// SeatsExact reports an exact seat count. Non-positive counts collapse to
// unavailable, matching the upstream encoding.
func SeatsExact(n int) SeatCount {
	if n <= 0 {
		return SeatsUnavailable()
	}
	return SeatCount{available: true, exact: true, count: n}
}

// SeatCountFromInt decodes the legacy tri-state integer.
func SeatCountFromInt(v int) SeatCount {
	switch {
	case v > 0:
		return SeatsExact(v)
	case v < 0:
		return SeatsAvailableUnknown()
	default:
		return SeatsUnavailable()
	}
}

// Available reports whether any discount seat can be booked on the train.
func (s SeatCount) Available() bool {
	return s.available
}

// Exact returns the disclosed seat count, if the source disclosed one.
func (s SeatCount) Exact() (int, bool) {
	return s.count, s.exact
}

// Int encodes the legacy tri-state integer (-1 / 0 / positive count).
func (s SeatCount) Int() int {
	switch {
	case !s.available:
		return 0
	case !s.exact:
		return -1
	default:
		return s.count
	}
}

// Below reports whether the count is a known exact value under the given
// alert threshold. Unknown-count and unavailable trains never alert.
func (s SeatCount) Below(threshold int) bool {
	return s.exact && s.count < threshold
}

func (s SeatCount) String() string {
	return strconv.Itoa(s.Int())
}

// MarshalJSON keeps the wire format identical to the legacy integer so
// existing dashboard consumers keep working.
func (s SeatCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Int())
}

func (s *SeatCount) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SeatCountFromInt(v)
	return nil
}
