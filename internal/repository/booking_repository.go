package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/quickcourt/quickcourt-api/internal/booking"
    "github.com/quickcourt/quickcourt-api/internal/model"
)

// BookingRepo persists court bookings.  Dates are stored as DATE and read
// back as "YYYY-MM-DD"; start and end times are zero padded "HH:MM"
// strings so they compare lexically in the same order as in time.
type BookingRepo struct {
    db  *sql.DB
    Now func() time.Time
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo {
    return &BookingRepo{db: db, Now: func() time.Time { return time.Now().UTC() }}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

const bookingColumns = `b.id, b.user_id, b.venue_id, b.court_id, DATE_FORMAT(b.booking_date, '%Y-%m-%d'),
       b.start_time, b.end_time, b.total_price, b.status, b.payment_status, b.payment_ref,
       b.created_at, b.updated_at`

// CreateIfFree inserts b only if no confirmed booking on the same court and
// day overlaps it.  The court row is locked for the duration of the
// transaction so concurrent requests for one court serialize here; the
// loser observes the winner's row and gets ErrSlotTaken.  b must carry
// Status and PaymentStatus; ID and timestamps are filled on success.
func (r *BookingRepo) CreateIfFree(ctx context.Context, b *model.Booking) (err error) {
    candidate, err := booking.NewInterval(b.StartTime, b.EndTime)
    if err != nil {
        return err
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback()
        } else {
            err = tx.Commit()
        }
    }()

    var courtID uint64
    if err = tx.QueryRowContext(ctx, `SELECT id FROM courts WHERE id = ? FOR UPDATE`, b.CourtID).Scan(&courtID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrCourtNotFound
        }
        return err
    }

    existing, err := confirmedIntervals(ctx, tx, b.CourtID, b.Date)
    if err != nil {
        return err
    }
    if booking.HasConflict(candidate, existing) {
        return ErrSlotTaken
    }

    now := r.Now()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (user_id, venue_id, court_id, booking_date, start_time, end_time,
                               total_price, status, payment_status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.UserID, b.VenueID, b.CourtID, b.Date, candidate.Start.String(), candidate.End.String(),
        b.TotalPrice, b.Status, b.PaymentStatus, now, now)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.StartTime, b.EndTime = candidate.Start.String(), candidate.End.String()
    b.CreatedAt, b.UpdatedAt = now, now
    return nil
}

// confirmedIntervals loads the intervals of confirmed bookings on a court
// for a day.  Rows whose times fail to parse are reported as errors rather
// than skipped so a corrupt row can never make a slot look free.
func confirmedIntervals(ctx context.Context, q queryer, courtID uint64, date string) ([]booking.Interval, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT start_time, end_time FROM bookings
         WHERE court_id = ? AND booking_date = ? AND status = ?`,
        courtID, date, model.BookingConfirmed)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []booking.Interval
    for rows.Next() {
        var s, e string
        if err := rows.Scan(&s, &e); err != nil {
            return nil, err
        }
        iv, err := booking.NewInterval(s, e)
        if err != nil {
            return nil, fmt.Errorf("stored booking %s-%s: %w", s, e, err)
        }
        out = append(out, iv)
    }
    return out, rows.Err()
}

// ListConfirmed returns the confirmed bookings of a court on a day ordered
// by start time.
func (r *BookingRepo) ListConfirmed(ctx context.Context, courtID uint64, date string) ([]model.Booking, error) {
    return r.list(ctx,
        `SELECT `+bookingColumns+` FROM bookings b
         WHERE b.court_id = ? AND b.booking_date = ? AND b.status = ?
         ORDER BY b.start_time`,
        courtID, date, model.BookingConfirmed)
}

// GetByID loads a booking.  Missing rows yield ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
    b, err := scanBooking(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// MarkPaid records a successful payment on a provisional booking.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, paymentRef string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET payment_status = ?, payment_ref = ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND status = ? AND payment_status = ?`,
        model.PaymentPaid, paymentRef, id, model.BookingConfirmed, model.PaymentPending)
    if err != nil {
        return err
    }
    return r.checkUpdated(ctx, res, id)
}

// MarkPaymentFailed cancels a provisional booking whose payment did not go
// through, releasing its slot.
func (r *BookingRepo) MarkPaymentFailed(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND status = ? AND payment_status = ?`,
        model.BookingCancelled, model.PaymentFailed, id, model.BookingConfirmed, model.PaymentPending)
    if err != nil {
        return err
    }
    return r.checkUpdated(ctx, res, id)
}

// TransitionStatus moves a booking to the given status.  The update only
// matches rows whose current status may legally move there and whose
// payment is settled, so the state machine holds even under concurrent
// writers and a provisional booking is only ever finished by its own
// settlement.  Any other booking yields ErrInvalidTransition.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, to model.BookingStatus) error {
    from := booking.SourcesOf(to)
    if len(from) == 0 {
        return ErrInvalidTransition
    }
    args := []interface{}{to, id}
    for _, s := range from {
        args = append(args, s)
    }
    args = append(args, model.PaymentPending)
    q := `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP
          WHERE id = ? AND status IN (` + placeholders(len(from)) + `) AND payment_status <> ?`
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return err
    }
    return r.checkUpdated(ctx, res, id)
}

// ExpirePending cancels provisional bookings created before createdBefore
// whose payment was never settled, releasing their slots.  It returns the
// number of bookings released.
func (r *BookingRepo) ExpirePending(ctx context.Context, createdBefore time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
         WHERE status = ? AND payment_status = ? AND created_at < ?`,
        model.BookingCancelled, model.PaymentFailed, model.BookingConfirmed, model.PaymentPending, createdBefore)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// checkUpdated turns a zero-row conditional update into ErrBookingNotFound
// or ErrInvalidTransition.
func (r *BookingRepo) checkUpdated(ctx context.Context, res sql.Result, id uint64) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    var status string
    err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrBookingNotFound
    }
    if err != nil {
        return err
    }
    return ErrInvalidTransition
}

// BookingDetail is a booking with the venue and court names a customer or
// owner sees in a listing.
type BookingDetail struct {
    model.Booking
    VenueName string `json:"venue_name"`
    CourtName string `json:"court_name"`
}

const detailJoin = ` FROM bookings b
         JOIN venues v ON v.id = b.venue_id
         JOIN courts c ON c.id = b.court_id`

// ListByUser returns a user's bookings, most recent slot first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    return r.listDetails(ctx,
        `SELECT `+bookingColumns+`, v.name, c.name`+detailJoin+`
         WHERE b.user_id = ?
         ORDER BY b.booking_date DESC, b.start_time DESC`, userID)
}

// ListByVenue returns the bookings of a venue for its owner's dashboard.
// A non-empty status filters the result.
func (r *BookingRepo) ListByVenue(ctx context.Context, venueID uint64, status model.BookingStatus) ([]BookingDetail, error) {
    q := `SELECT ` + bookingColumns + `, v.name, c.name` + detailJoin + ` WHERE b.venue_id = ?`
    args := []interface{}{venueID}
    if status != "" {
        q += ` AND b.status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY b.booking_date DESC, b.start_time DESC`
    return r.listDetails(ctx, q, args...)
}

// Stats holds the counters shown on the admin dashboard.
type Stats struct {
    Users             int     `json:"users"`
    Owners            int     `json:"owners"`
    Venues            int     `json:"venues"`
    PendingVenues     int     `json:"pending_venues"`
    Courts            int     `json:"courts"`
    Bookings          int     `json:"bookings"`
    ConfirmedBookings int     `json:"confirmed_bookings"`
    Revenue           float64 `json:"revenue"`
    OpenReports       int     `json:"open_reports"`
}

// Stats computes dashboard counters in a single round trip.  Confirmed
// bookings count only paid ones, so in-flight provisional rows are left
// out.  Revenue sums paid bookings that were not cancelled.  OpenReports is filled by the caller.
func (r *BookingRepo) Stats(ctx context.Context) (Stats, error) {
    const q = `SELECT
        (SELECT COUNT(*) FROM users WHERE role = 'USER'),
        (SELECT COUNT(*) FROM users WHERE role = 'OWNER'),
        (SELECT COUNT(*) FROM venues),
        (SELECT COUNT(*) FROM venues WHERE status = 'PENDING'),
        (SELECT COUNT(*) FROM courts),
        (SELECT COUNT(*) FROM bookings),
        (SELECT COUNT(*) FROM bookings WHERE status = 'Confirmed' AND payment_status = 'PAID'),
        (SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE payment_status = 'PAID' AND status <> 'Cancelled')`
    var s Stats
    err := r.db.QueryRowContext(ctx, q).Scan(&s.Users, &s.Owners, &s.Venues, &s.PendingVenues,
        &s.Courts, &s.Bookings, &s.ConfirmedBookings, &s.Revenue)
    return s, err
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Booking{}
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, args ...interface{}) ([]BookingDetail, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []BookingDetail{}
    for rows.Next() {
        var d BookingDetail
        var ref sql.NullString
        b := &d.Booking
        if err := rows.Scan(&b.ID, &b.UserID, &b.VenueID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
            &b.TotalPrice, &b.Status, &b.PaymentStatus, &ref, &b.CreatedAt, &b.UpdatedAt,
            &d.VenueName, &d.CourtName); err != nil {
            return nil, err
        }
        if ref.Valid {
            s := ref.String
            b.PaymentRef = &s
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

func scanBooking(s rowScanner) (*model.Booking, error) {
    b := &model.Booking{}
    var ref sql.NullString
    if err := s.Scan(&b.ID, &b.UserID, &b.VenueID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
        &b.TotalPrice, &b.Status, &b.PaymentStatus, &ref, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    if ref.Valid {
        s := ref.String
        b.PaymentRef = &s
    }
    return b, nil
}

func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
