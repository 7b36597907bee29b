package repository // repository holds data access logic for domain entities

import (
	"context"      // context carries deadlines and cancellation into queries
	"database/sql" // sql provides DB primitives
	"errors"       // errors is used to match sql.ErrNoRows
	"strings"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

// VenueRepo provides persistence for venues.  Owners create and edit their
// own venues; admins move them between approval states; the public only
// ever sees APPROVED rows.
type VenueRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = `id, owner_id, name, address, description, sport_types, status, created_at, updated_at`

// Create inserts a new venue in PENDING state and reads the row back so
// the defaulted status and timestamps are populated on v.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (owner_id, name, address, description, sport_types, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.OwnerID, v.Name, v.Address, v.Description,
		NormalizeSports(v.SportTypes), model.VenuePending)
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
	*v = *got
	return nil
}

// GetByID returns a venue regardless of status.  Missing rows yield
// ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	return v, err
}

// GetByIDAndOwner returns the venue only when ownerID owns it.  A venue
// that exists under another owner yields ErrForbidden.
func (r *VenueRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Venue, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return v, nil
}

// GetApproved returns a venue only if it is publicly visible.
func (r *VenueRepo) GetApproved(ctx context.Context, id uint64) (*model.Venue, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = ? AND status = ?`, id, model.VenueApproved)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	return v, err
}

// ListApproved returns approved venues for public browsing.  A non-empty
// sport restricts the result to venues offering it.
func (r *VenueRepo) ListApproved(ctx context.Context, sport string) ([]*model.Venue, error) {
	q := `SELECT ` + venueColumns + ` FROM venues WHERE status = ?`
	args := []interface{}{model.VenueApproved}
	if s := strings.ToLower(strings.TrimSpace(sport)); s != "" {
		q += ` AND FIND_IN_SET(?, sport_types) > 0`
		args = append(args, s)
	}
	q += ` ORDER BY name, id`
	return r.list(ctx, q, args...)
}

// ListByOwner returns every venue of an owner, newest first.
func (r *VenueRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Venue, error) {
	return r.list(ctx, `SELECT `+venueColumns+` FROM venues WHERE owner_id = ? ORDER BY id DESC`, ownerID)
}

// ListByStatus backs the admin approval queue.  An empty status lists all venues.
func (r *VenueRepo) ListByStatus(ctx context.Context, status model.VenueStatus) ([]*model.Venue, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY id`)
	}
	return r.list(ctx, `SELECT `+venueColumns+` FROM venues WHERE status = ? ORDER BY id`, status)
}

// Update changes the editable fields of a venue owned by v.OwnerID.  An
// edited venue keeps its approval status.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	if _, err := r.GetByIDAndOwner(ctx, v.ID, v.OwnerID); err != nil {
		return err
	}
	const q = `UPDATE venues
	           SET name = ?, address = ?, description = ?, sport_types = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	if _, err := r.db.ExecContext(ctx, q, v.Name, v.Address, v.Description,
		NormalizeSports(v.SportTypes), v.ID, v.OwnerID); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

// SetStatus is used by admins to approve or reject a venue.
func (r *VenueRepo) SetStatus(ctx context.Context, id uint64, status model.VenueStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE venues SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOwner removes a venue with its courts and booking history.
// It is refused with ErrConflict while any confirmed booking of the venue
// is still upcoming.  The deletion occurs within a transaction.
func (r *VenueRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (err error) {
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
	var dbOwnerID uint64
	if err = tx.QueryRowContext(ctx, `SELECT owner_id FROM venues WHERE id = ? FOR UPDATE`, id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVenueNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	var upcoming int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE venue_id = ? AND status = ? AND booking_date >= CURDATE()`,
		id, model.BookingConfirmed).Scan(&upcoming); err != nil {
		return err
	}
	if upcoming > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE venue_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM courts WHERE venue_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	return err
}

func (r *VenueRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Venue, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanVenue(s rowScanner) (*model.Venue, error) {
	v := &model.Venue{}
	var desc sql.NullString
	if err := s.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &desc, &v.SportTypes,
		&v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		v.Description = &d
	}
	return v, nil
}

// NormalizeSports lowercases a comma separated sport list and drops blanks
// and duplicates so FIND_IN_SET matches exactly.
func NormalizeSports(s string) string {
	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, ",")
}
