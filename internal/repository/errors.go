// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking service to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current user is not authorized to touch a venue owned by someone
// else, while ErrSlotTaken signals that a booking lost the race for
// its court and time slot.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a court that still has upcoming confirmed bookings.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrVenueNotFound   = errors.New("venue not found")
	ErrCourtNotFound   = errors.New("court not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ErrSlotTaken is returned by BookingRepo.CreateIfFree when a confirmed
// booking on the same court and day overlaps the requested interval.
var ErrSlotTaken = errors.New("time slot is not available")

// ErrInvalidTransition is returned when a booking status change is not
// allowed from the booking's current status.
var ErrInvalidTransition = errors.New("invalid booking status transition")
