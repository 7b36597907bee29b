package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "Confirmed"
    BookingCancelled BookingStatus = "Cancelled"
    BookingCompleted BookingStatus = "Completed"
)

// PaymentStatus tracks the payment step of a booking.  A booking that is
// Confirmed with a PENDING payment is provisional: it holds its slot
// while the payment call is in flight.
type PaymentStatus string

const (
    PaymentPending PaymentStatus = "PENDING"
    PaymentPaid    PaymentStatus = "PAID"
    PaymentFailed  PaymentStatus = "FAILED"
)

// Booking records a reservation of a court for one calendar day and a
// half-open [StartTime, EndTime) interval.  VenueID is denormalized from
// the court at creation time.  TotalPrice is the raw product of the
// duration in hours and the court's hourly price; it is never rounded.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who made the booking.
//  VenueID       – venue containing the court.
//  CourtID       – court being booked.
//  Date          – calendar day, "YYYY-MM-DD".
//  StartTime     – inclusive start, "HH:MM".
//  EndTime       – exclusive end, "HH:MM".
//  TotalPrice    – price charged for the slot.
//  Status        – Confirmed, Cancelled or Completed.
//  PaymentStatus – PENDING, PAID or FAILED.
//  PaymentRef    – transaction id returned by the payment processor.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
    ID            uint64        `json:"id"`                    // bookings.id
    UserID        uint64        `json:"user_id"`               // bookings.user_id
    VenueID       uint64        `json:"venue_id"`              // bookings.venue_id
    CourtID       uint64        `json:"court_id"`              // bookings.court_id
    Date          string        `json:"date"`                  // bookings.booking_date
    StartTime     string        `json:"start_time"`            // bookings.start_time
    EndTime       string        `json:"end_time"`              // bookings.end_time
    TotalPrice    float64       `json:"total_price"`           // bookings.total_price
    Status        BookingStatus `json:"status"`                // bookings.status
    PaymentStatus PaymentStatus `json:"payment_status"`        // bookings.payment_status
    PaymentRef    *string       `json:"payment_ref,omitempty"` // bookings.payment_ref (nullable)
    CreatedAt     time.Time     `json:"created_at"`            // bookings.created_at
    UpdatedAt     time.Time     `json:"updated_at"`            // bookings.updated_at
}
