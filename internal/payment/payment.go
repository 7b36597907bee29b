// Package payment defines the payment boundary used by the booking flow
// and ships a simulator that stands in for a real gateway.
package payment

import "context"

// Request is a charge for a single booking.
type Request struct {
	BookingID  uint64
	TotalPrice float64
}

// Outcome is the processor's answer.  A declined charge is a normal
// outcome, not an error; errors are reserved for transport failures.
type Outcome struct {
	Success       bool
	TransactionID string
	Message       string
}

// Processor charges bookings.  Implementations must return promptly once
// ctx is done.
type Processor interface {
	ProcessPayment(ctx context.Context, req Request) (Outcome, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, req Request) (Outcome, error)

func (f ProcessorFunc) ProcessPayment(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}
