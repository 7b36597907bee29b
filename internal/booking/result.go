package booking

import "github.com/quickcourt/quickcourt-api/internal/model"

// Messages returned to clients.  Some are matched verbatim by clients, so
// they must not change.
const (
	MsgBookingConfirmed  = "Booking confirmed successfully."
	MsgSlotUnavailable   = "Time slot is not available."
	MsgPaymentFailed     = "Payment failed. Booking cancelled."
	MsgCourtNotFound     = "Court not found."
	MsgVenueUnavailable  = "Venue is not available for booking."
	MsgOutsideHours      = "Requested time is outside the court's operating hours."
	MsgSlotInPast        = "Cannot book a time slot in the past."
	MsgBookingNotFound   = "Booking not found."
	MsgBookingCancelled  = "Booking cancelled successfully."
	MsgNotCancellable    = "Only confirmed bookings can be cancelled."
	MsgBookingCompleted  = "Booking marked as completed."
	MsgNotCompletable    = "Only confirmed bookings can be completed."
	MsgNotFinished       = "Booking cannot be completed before it ends."
	MsgForbidden         = "You are not allowed to manage this booking."
	MsgInvalidTransition = "Booking status changed concurrently; please retry."
	MsgPaymentPending    = "Payment for this booking is still being processed."
)

// FailureKind classifies an unsuccessful Result so the HTTP layer can
// pick a status code.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureInvalid       FailureKind = "invalid"
	FailureNotFound      FailureKind = "not_found"
	FailureConflict      FailureKind = "conflict"
	FailurePaymentFailed FailureKind = "payment_failed"
	FailureForbidden     FailureKind = "forbidden"
)

// Result is the outcome of a booking operation that completed without an
// infrastructure error.  Business failures are reported here rather than
// as Go errors.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Booking *model.Booking `json:"booking,omitempty"`
	Kind    FailureKind    `json:"-"`
}

// Succeeded builds a successful result.
func Succeeded(msg string, b *model.Booking) Result {
	return Result{Success: true, Message: msg, Booking: b}
}

// Failed builds a failed result of the given kind.
func Failed(kind FailureKind, msg string) Result {
	return Result{Success: false, Message: msg, Kind: kind}
}

// CreateRequest is the input of a booking attempt.
type CreateRequest struct {
	CourtID   uint64 `json:"court_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Actor identifies who performs an owner or admin action.
type Actor struct {
	ID   uint64
	Role string
}

// Availability describes a court's bookable window on one day and the
// intervals already taken.
type Availability struct {
	CourtID      uint64     `json:"court_id"`
	Date         string     `json:"date"`
	OpenTime     string     `json:"open_time"`
	CloseTime    string     `json:"close_time"`
	PricePerHour float64    `json:"price_per_hour"`
	Booked       []TimeSlot `json:"booked"`
}

// TimeSlot is an "HH:MM" pair as it appears on the wire.
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
