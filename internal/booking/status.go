package booking

import "github.com/quickcourt/quickcourt-api/internal/model"

// transitions lists, for each target status, the statuses a booking may
// move from.  Confirmed is the only entry state and the only source.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingCancelled: {model.BookingConfirmed},
	model.BookingCompleted: {model.BookingConfirmed},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// SourcesOf returns the statuses from which to is reachable.  It is empty
// for Confirmed, which is only ever set on creation.
func SourcesOf(to model.BookingStatus) []model.BookingStatus {
	return transitions[to]
}
