package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

// CourtRepo provides methods to create, edit and look up courts.  A court
// always belongs to a venue; ownership checks go through the venue row.
type CourtRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewCourtRepo constructs a CourtRepo with the given DB handle.
func NewCourtRepo(db *sql.DB) *CourtRepo { return &CourtRepo{db: db} }

const courtColumns = `c.id, c.venue_id, c.name, c.sport_type, c.price_per_hour, c.open_time, c.close_time, c.created_at, c.updated_at`

// Create inserts a court under a venue owned by ownerID and reads back the
// stored row.  Validation of price and hours happens in the caller.
func (r *CourtRepo) Create(ctx context.Context, ownerID uint64, c *model.Court) error {
	if err := r.checkVenueOwner(ctx, c.VenueID, ownerID); err != nil {
		return err
	}
	const q = `INSERT INTO courts (venue_id, name, sport_type, price_per_hour, open_time, close_time)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.VenueID, c.Name, strings.ToLower(strings.TrimSpace(c.SportType)),
		c.PricePerHour, c.OpenTime, c.CloseTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// GetByID fetches a court.  Missing rows yield ErrCourtNotFound.
func (r *CourtRepo) GetByID(ctx context.Context, id uint64) (*model.Court, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+courtColumns+` FROM courts c WHERE c.id = ?`, id)
	c, err := scanCourt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourtNotFound
	}
	return c, err
}

// Lookup returns a court joined with its venue's owner, name and approval
// status.  The booking flow uses it to decide whether the court may be booked.
func (r *CourtRepo) Lookup(ctx context.Context, id uint64) (*model.CourtWithVenue, error) {
	const q = `SELECT ` + courtColumns + `, v.owner_id, v.name, v.status
	           FROM courts c JOIN venues v ON v.id = c.venue_id
	           WHERE c.id = ?`
	cw := &model.CourtWithVenue{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&cw.ID, &cw.VenueID, &cw.Name, &cw.SportType, &cw.PricePerHour, &cw.OpenTime, &cw.CloseTime,
		&cw.CreatedAt, &cw.UpdatedAt, &cw.VenueOwnerID, &cw.VenueName, &cw.VenueStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourtNotFound
	}
	if err != nil {
		return nil, err
	}
	return cw, nil
}

// ListByVenue returns the courts of a venue ordered by name.
func (r *CourtRepo) ListByVenue(ctx context.Context, venueID uint64) ([]*model.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courtColumns+` FROM courts c WHERE c.venue_id = ? ORDER BY c.name, c.id`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Court{}
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update edits a court owned (through its venue) by ownerID.  Price and
// hours changes only affect bookings made afterwards; existing bookings
// keep their stored price.
func (r *CourtRepo) Update(ctx context.Context, ownerID uint64, c *model.Court) error {
	cur, err := r.Lookup(ctx, c.ID)
	if err != nil {
		return err
	}
	if cur.VenueOwnerID != ownerID {
		return ErrForbidden
	}
	const q = `UPDATE courts
	           SET name = ?, sport_type = ?, price_per_hour = ?, open_time = ?, close_time = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, c.Name, strings.ToLower(strings.TrimSpace(c.SportType)),
		c.PricePerHour, c.OpenTime, c.CloseTime, c.ID); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// DeleteByIDAndOwner removes a court and its booking history.  It returns
// ErrConflict while the court still has upcoming confirmed bookings.
func (r *CourtRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (err error) {
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
	// Lock the court row so no booking can slip in between the check and the delete.
	var dbOwnerID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT v.owner_id FROM courts c JOIN venues v ON v.id = c.venue_id WHERE c.id = ? FOR UPDATE`, id).
		Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCourtNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	var upcoming int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE court_id = ? AND status = ? AND booking_date >= CURDATE()`,
		id, model.BookingConfirmed).Scan(&upcoming); err != nil {
		return err
	}
	if upcoming > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE court_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM courts WHERE id = ?`, id)
	return err
}

func (r *CourtRepo) checkVenueOwner(ctx context.Context, venueID, ownerID uint64) error {
	var dbOwnerID uint64
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM venues WHERE id = ?`, venueID).Scan(&dbOwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVenueNotFound
	}
	if err != nil {
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func scanCourt(s rowScanner) (*model.Court, error) {
	c := &model.Court{}
	if err := s.Scan(&c.ID, &c.VenueID, &c.Name, &c.SportType, &c.PricePerHour, &c.OpenTime, &c.CloseTime,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
