package booking

// Interval is a half-open [Start, End) range of a single day.
type Interval struct {
	Start Clock
	End   Clock
}

// NewInterval parses start and end and requires start < end.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether i and o share any instant.  Touching intervals
// such as 10:00-11:00 and 11:00-12:00 do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	if i.Start == o.Start && i.End == o.End {
		return true
	}
	return i.Start < o.End && i.End > o.Start
}

// Within reports whether i lies entirely inside o.
func (i Interval) Within(o Interval) bool {
	return i.Start >= o.Start && i.End <= o.End
}

// Minutes is the length of the interval.
func (i Interval) Minutes() int { return int(i.End - i.Start) }

// Hours is the length of the interval in fractional hours.
func (i Interval) Hours() float64 { return float64(i.End-i.Start) / 60 }

// HasConflict reports whether candidate overlaps any of existing.
func HasConflict(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if candidate.Overlaps(e) {
			return true
		}
	}
	return false
}
