// Package booking holds the rules of the court booking engine that do not
// touch storage: time-of-day parsing, half-open interval overlap, pricing,
// status transitions and the result values returned to the HTTP layer.
package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a booking day.
const DateLayout = "2006-01-02"

var (
	ErrInvalidClock    = errors.New("time must be in HH:MM 24-hour format")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrEmptyInterval   = errors.New("start time must be before end time")
	ErrInvalidPrice    = errors.New("price per hour must be positive")
	ErrInvalidOpenings = errors.New("opening time must be before closing time")
)

// Clock is a time of day expressed in minutes since midnight.  The value
// 24*60 is allowed so that a court can close at "24:00".
type Clock int

const endOfDay Clock = 24 * 60

// ParseClock parses "HH:MM" (hours may be a single digit).
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

// String formats the clock as zero-padded "HH:MM".  Zero padding keeps
// stored values ordered the same way lexicographically and numerically.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDate parses a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// At returns the instant of clock c on calendar day day in loc.
func At(day time.Time, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).Add(time.Duration(c) * time.Minute)
}
