// Package service orchestrates court bookings: validation, the atomic
// conflict check, payment and notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/booking"
	"github.com/quickcourt/quickcourt-api/internal/model"
	"github.com/quickcourt/quickcourt-api/internal/notify"
	"github.com/quickcourt/quickcourt-api/internal/payment"
	"github.com/quickcourt/quickcourt-api/internal/repository"
	"github.com/quickcourt/quickcourt-api/internal/telemetry"
)

// Courts resolves a court together with its venue.
type Courts interface {
	Lookup(ctx context.Context, id uint64) (*model.CourtWithVenue, error)
}

// Bookings is the booking store.  CreateIfFree must check for overlap and
// insert atomically.
type Bookings interface {
	CreateIfFree(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListConfirmed(ctx context.Context, courtID uint64, date string) ([]model.Booking, error)
	MarkPaid(ctx context.Context, id uint64, paymentRef string) error
	MarkPaymentFailed(ctx context.Context, id uint64) error
	TransitionStatus(ctx context.Context, id uint64, to model.BookingStatus) error
	ExpirePending(ctx context.Context, createdBefore time.Time) (int64, error)
}

// Events accepts notifications without blocking.
type Events interface {
	Enqueue(ev notify.BookingEvent) bool
}

// Options tune booking policy.  Zero values fall back to defaults.
// PendingTTL is how long a provisional booking may hold its slot before
// the sweeper releases it; it is never shorter than twice PaymentTimeout.
type Options struct {
	PaymentTimeout time.Duration
	CancelLeadTime time.Duration
	PendingTTL     time.Duration
	Location       *time.Location
	Now            func() time.Time
}

const (
	DefaultPaymentTimeout = 5 * time.Second
	DefaultCancelLeadTime = 2 * time.Hour
	DefaultPendingTTL     = time.Minute
)

// BookingService is the booking orchestrator.
type BookingService struct {
	courts   Courts
	bookings Bookings
	payments payment.Processor
	events   Events
	log      *zap.Logger
	opts     Options
}

// NewBookingService wires the orchestrator.  A nil events queue or logger
// is replaced by a no-op.
func NewBookingService(courts Courts, bookings Bookings, payments payment.Processor, events Events, log *zap.Logger, opts Options) *BookingService {
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = DefaultPaymentTimeout
	}
	if opts.CancelLeadTime <= 0 {
		opts.CancelLeadTime = DefaultCancelLeadTime
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	if opts.PendingTTL < 2*opts.PaymentTimeout {
		opts.PendingTTL = 2 * opts.PaymentTimeout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if events == nil {
		events = discardEvents{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{courts: courts, bookings: bookings, payments: payments, events: events, log: log, opts: opts}
}

type discardEvents struct{}

func (discardEvents) Enqueue(notify.BookingEvent) bool { return true }

// CreateBooking validates the request, reserves the slot, charges the
// customer and returns the outcome.  Business failures come back as a
// failed Result; only infrastructure problems produce an error.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, req booking.CreateRequest) (booking.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.create",
		attribute.Int64("court.id", int64(req.CourtID)),
		attribute.String("booking.date", req.Date))
	defer span.End()

	day, err := booking.ParseDate(req.Date)
	if err != nil {
		return booking.Failed(booking.FailureInvalid, "Invalid date; expected YYYY-MM-DD."), nil
	}
	slot, err := booking.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		if errors.Is(err, booking.ErrEmptyInterval) {
			return booking.Failed(booking.FailureInvalid, "Start time must be before end time."), nil
		}
		return booking.Failed(booking.FailureInvalid, "Invalid time; expected HH:MM."), nil
	}

	court, err := s.courts.Lookup(ctx, req.CourtID)
	if errors.Is(err, repository.ErrCourtNotFound) {
		return booking.Failed(booking.FailureNotFound, booking.MsgCourtNotFound), nil
	}
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return booking.Result{}, fmt.Errorf("lookup court %d: %w", req.CourtID, err)
	}
	if court.VenueStatus != model.VenueApproved {
		return booking.Failed(booking.FailureInvalid, booking.MsgVenueUnavailable), nil
	}

	hours, err := booking.NewInterval(court.OpenTime, court.CloseTime)
	if err != nil {
		return booking.Result{}, fmt.Errorf("court %d has invalid operating hours: %w", court.ID, err)
	}
	if !slot.Within(hours) {
		return booking.Failed(booking.FailureInvalid, booking.MsgOutsideHours), nil
	}
	if !booking.At(day, slot.Start, s.opts.Location).After(s.opts.Now()) {
		return booking.Failed(booking.FailureInvalid, booking.MsgSlotInPast), nil
	}

	b := &model.Booking{
		UserID:        userID,
		VenueID:       court.VenueID,
		CourtID:       court.ID,
		Date:          day.Format(booking.DateLayout),
		StartTime:     slot.Start.String(),
		EndTime:       slot.End.String(),
		TotalPrice:    booking.ComputePrice(slot.Start, slot.End, court.PricePerHour),
		Status:        model.BookingConfirmed,
		PaymentStatus: model.PaymentPending,
	}
	if err := s.bookings.CreateIfFree(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return booking.Failed(booking.FailureConflict, booking.MsgSlotUnavailable), nil
		case errors.Is(err, repository.ErrCourtNotFound):
			return booking.Failed(booking.FailureNotFound, booking.MsgCourtNotFound), nil
		}
		telemetry.SetSpanError(ctx, err)
		return booking.Result{}, fmt.Errorf("reserve slot: %w", err)
	}
	span.SetAttributes(attribute.Int64("booking.id", int64(b.ID)))

	outcome, payErr := s.charge(ctx, b)

	// The slot is held by a provisional row.  Settle it even if the client
	// has gone away.
	fctx := context.WithoutCancel(ctx)
	if payErr != nil || !outcome.Success {
		if err := s.bookings.MarkPaymentFailed(fctx, b.ID); err != nil {
			s.log.Error("release provisional booking", zap.Uint64("booking_id", b.ID), zap.Error(err))
			return booking.Result{}, fmt.Errorf("release booking %d: %w", b.ID, err)
		}
		s.log.Info("payment declined",
			zap.Uint64("booking_id", b.ID),
			zap.String("reason", outcome.Message),
			zap.NamedError("payment_error", payErr))
		return booking.Failed(booking.FailurePaymentFailed, booking.MsgPaymentFailed), nil
	}

	if err := s.bookings.MarkPaid(fctx, b.ID, outcome.TransactionID); err != nil {
		telemetry.SetSpanError(ctx, err)
		return booking.Result{}, fmt.Errorf("confirm booking %d: %w", b.ID, err)
	}
	ref := outcome.TransactionID
	b.PaymentStatus = model.PaymentPaid
	b.PaymentRef = &ref

	s.notify(notify.BookingConfirmed, b)
	s.log.Info("booking confirmed",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("court_id", b.CourtID),
		zap.String("date", b.Date),
		zap.String("slot", b.StartTime+"-"+b.EndTime),
		zap.Float64("total_price", b.TotalPrice))
	return booking.Succeeded(booking.MsgBookingConfirmed, b), nil
}

// charge calls the payment processor under the configured timeout.
func (s *BookingService) charge(ctx context.Context, b *model.Booking) (payment.Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "payment.process",
		attribute.Int64("booking.id", int64(b.ID)),
		attribute.Float64("booking.total_price", b.TotalPrice))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()
	out, err := s.payments.ProcessPayment(ctx, payment.Request{BookingID: b.ID, TotalPrice: b.TotalPrice})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return payment.Outcome{Message: err.Error()}, err
	}
	span.SetAttributes(attribute.Bool("payment.success", out.Success))
	return out, nil
}

// CancelUserBooking cancels a confirmed booking on behalf of its owner as
// long as the slot starts more than the cancellation lead time from now.
func (s *BookingService) CancelUserBooking(ctx context.Context, bookingID, userID uint64) (booking.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.cancel", attribute.Int64("booking.id", int64(bookingID)))
	defer span.End()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return booking.Failed(booking.FailureNotFound, booking.MsgBookingNotFound), nil
	}
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return booking.Result{}, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if b.UserID != userID {
		return booking.Failed(booking.FailureNotFound, booking.MsgBookingNotFound), nil
	}
	if !booking.CanTransition(b.Status, model.BookingCancelled) {
		return booking.Failed(booking.FailureInvalid, booking.MsgNotCancellable), nil
	}
	if b.PaymentStatus == model.PaymentPending {
		return booking.Failed(booking.FailureConflict, booking.MsgPaymentPending), nil
	}
	start, err := s.instant(b.Date, b.StartTime)
	if err != nil {
		return booking.Result{}, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if start.Sub(s.opts.Now()) <= s.opts.CancelLeadTime {
		return booking.Failed(booking.FailureInvalid,
			fmt.Sprintf("Bookings can only be cancelled at least %s before the start time.", s.opts.CancelLeadTime)), nil
	}

	if err := s.bookings.TransitionStatus(ctx, b.ID, model.BookingCancelled); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return booking.Failed(booking.FailureConflict, booking.MsgInvalidTransition), nil
		}
		telemetry.SetSpanError(ctx, err)
		return booking.Result{}, fmt.Errorf("cancel booking %d: %w", b.ID, err)
	}
	b.Status = model.BookingCancelled
	s.notify(notify.BookingCancelled, b)
	s.log.Info("booking cancelled", zap.Uint64("booking_id", b.ID), zap.Uint64("user_id", userID))
	return booking.Succeeded(booking.MsgBookingCancelled, b), nil
}

// CompleteBooking marks a confirmed booking Completed once its slot has
// ended.  Only the owner of the booking's venue or an admin may do so.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uint64, actor booking.Actor) (booking.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "booking.complete", attribute.Int64("booking.id", int64(bookingID)))
	defer span.End()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return booking.Failed(booking.FailureNotFound, booking.MsgBookingNotFound), nil
	}
	if err != nil {
		return booking.Result{}, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if actor.Role != model.RoleAdmin {
		court, err := s.courts.Lookup(ctx, b.CourtID)
		if err != nil && !errors.Is(err, repository.ErrCourtNotFound) {
			return booking.Result{}, fmt.Errorf("lookup court %d: %w", b.CourtID, err)
		}
		if court == nil || actor.Role != model.RoleOwner || court.VenueOwnerID != actor.ID {
			return booking.Failed(booking.FailureForbidden, booking.MsgForbidden), nil
		}
	}
	if !booking.CanTransition(b.Status, model.BookingCompleted) {
		return booking.Failed(booking.FailureInvalid, booking.MsgNotCompletable), nil
	}
	if b.PaymentStatus == model.PaymentPending {
		return booking.Failed(booking.FailureConflict, booking.MsgPaymentPending), nil
	}
	end, err := s.instant(b.Date, b.EndTime)
	if err != nil {
		return booking.Result{}, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if s.opts.Now().Before(end) {
		return booking.Failed(booking.FailureInvalid, booking.MsgNotFinished), nil
	}
	if err := s.bookings.TransitionStatus(ctx, b.ID, model.BookingCompleted); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return booking.Failed(booking.FailureConflict, booking.MsgInvalidTransition), nil
		}
		return booking.Result{}, fmt.Errorf("complete booking %d: %w", b.ID, err)
	}
	b.Status = model.BookingCompleted
	s.log.Info("booking completed", zap.Uint64("booking_id", b.ID), zap.Uint64("actor_id", actor.ID))
	return booking.Succeeded(booking.MsgBookingCompleted, b), nil
}

// HasConflict reports whether [start, end) on a court and day overlaps a
// confirmed booking.  Courts of unapproved venues yield ErrCourtNotFound.
func (s *BookingService) HasConflict(ctx context.Context, courtID uint64, date, start, end string) (bool, error) {
	candidate, err := booking.NewInterval(start, end)
	if err != nil {
		return false, err
	}
	court, err := s.courts.Lookup(ctx, courtID)
	if err != nil {
		return false, err
	}
	if court.VenueStatus != model.VenueApproved {
		return false, repository.ErrCourtNotFound
	}
	existing, err := s.bookings.ListConfirmed(ctx, courtID, date)
	if err != nil {
		return false, err
	}
	taken := make([]booking.Interval, 0, len(existing))
	for _, b := range existing {
		iv, err := booking.NewInterval(b.StartTime, b.EndTime)
		if err != nil {
			return false, fmt.Errorf("booking %d: %w", b.ID, err)
		}
		taken = append(taken, iv)
	}
	return booking.HasConflict(candidate, taken), nil
}

// Availability returns a court's operating hours and the intervals already
// taken on a day.
func (s *BookingService) Availability(ctx context.Context, courtID uint64, date string) (*booking.Availability, error) {
	day, err := booking.ParseDate(date)
	if err != nil {
		return nil, err
	}
	court, err := s.courts.Lookup(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if court.VenueStatus != model.VenueApproved {
		return nil, repository.ErrCourtNotFound
	}
	date = day.Format(booking.DateLayout)
	existing, err := s.bookings.ListConfirmed(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	av := &booking.Availability{
		CourtID:      court.ID,
		Date:         date,
		OpenTime:     court.OpenTime,
		CloseTime:    court.CloseTime,
		PricePerHour: court.PricePerHour,
		Booked:       make([]booking.TimeSlot, 0, len(existing)),
	}
	for _, b := range existing {
		av.Booked = append(av.Booked, booking.TimeSlot{StartTime: b.StartTime, EndTime: b.EndTime})
	}
	return av, nil
}

// notify is fire-and-forget; a dropped event never affects the booking.
func (s *BookingService) notify(typ string, b *model.Booking) {
	_ = s.events.Enqueue(notify.NewBookingEvent(typ, b, s.opts.Now()))
}

// instant resolves a stored date and "HH:MM" to a point in time in the
// configured zone.
func (s *BookingService) instant(date, hhmm string) (time.Time, error) {
	day, err := booking.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := booking.ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return booking.At(day, c, s.opts.Location), nil
}

// ExpireStale releases provisional bookings older than PendingTTL whose
// settlement never happened, e.g. after a crash mid-payment.
func (s *BookingService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.bookings.ExpirePending(ctx, s.opts.Now().Add(-s.opts.PendingTTL))
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}
	if n > 0 {
		s.log.Warn("released stale provisional bookings", zap.Int64("count", n))
	}
	return n, nil
}

// RunSweeper calls ExpireStale every interval until ctx is done.  Sweep
// errors are logged and retried on the next tick.
func (s *BookingService) RunSweeper(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = s.opts.PendingTTL / 2
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if _, err := s.ExpireStale(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("booking sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
