// Package notify carries booking lifecycle events from the request path to
// RabbitMQ and from RabbitMQ to the notification sink.
package notify

import (
    "time"

    "github.com/quickcourt/quickcourt-api/internal/model"
)

// Event types double as queue names on the default exchange.
const (
    BookingConfirmed = "booking.confirmed"
    BookingCancelled = "booking.cancelled"
)

// Queues lists every queue the publisher declares and the consumer reads.
var Queues = []string{BookingConfirmed, BookingCancelled}

// BookingEvent is published when a booking is confirmed or cancelled.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingEvent struct {
    Type          string  `json:"type"`
    BookingID     uint64  `json:"booking_id"`
    UserID        uint64  `json:"user_id"`
    VenueID       uint64  `json:"venue_id"`
    CourtID       uint64  `json:"court_id"`
    Date          string  `json:"date"`
    StartTime     string  `json:"start_time"`
    EndTime       string  `json:"end_time"`
    TotalPrice    float64 `json:"total_price"`
    TransactionID string  `json:"transaction_id,omitempty"`
    OccurredAt    string  `json:"occurred_at"`
}

// NewBookingEvent builds an event of type typ from b, stamped with at.
func NewBookingEvent(typ string, b *model.Booking, at time.Time) BookingEvent {
    ev := BookingEvent{
        Type:       typ,
        BookingID:  b.ID,
        UserID:     b.UserID,
        VenueID:    b.VenueID,
        CourtID:    b.CourtID,
        Date:       b.Date,
        StartTime:  b.StartTime,
        EndTime:    b.EndTime,
        TotalPrice: b.TotalPrice,
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
    if b.PaymentRef != nil {
        ev.TransactionID = *b.PaymentRef
    }
    return ev
}
