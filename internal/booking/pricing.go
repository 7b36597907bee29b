package booking

import "errors"

// ComputePrice returns the duration of [start, end) in hours multiplied by
// pricePerHour.  The product is returned as is, without currency rounding.
// Callers must reject start >= end beforehand.
func ComputePrice(start, end Clock, pricePerHour float64) float64 {
	hours := float64(end-start) / 60
	return hours * pricePerHour
}

// ValidateCourt checks the invariants of a court definition and returns
// its operating hours.
func ValidateCourt(pricePerHour float64, open, close string) (Interval, error) {
	if !(pricePerHour > 0) {
		return Interval{}, ErrInvalidPrice
	}
	hours, err := NewInterval(open, close)
	if errors.Is(err, ErrEmptyInterval) {
		return Interval{}, ErrInvalidOpenings
	}
	return hours, err
}
