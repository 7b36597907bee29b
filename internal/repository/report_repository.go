package repository

import (
	"context"
	"database/sql"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

// ReportRepo stores venue reports filed by users.
type ReportRepo struct{ db *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Create inserts an OPEN report.  The venue must exist.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues WHERE id = ?`, rep.VenueID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrVenueNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (reporter_id, venue_id, reason, status) VALUES (?, ?, ?, ?)`,
		rep.ReporterID, rep.VenueID, rep.Reason, rep.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM reports WHERE id = ?`, rep.ID).Scan(&rep.CreatedAt)
}

// CountOpen returns the number of reports awaiting review.
func (r *ReportRepo) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE status = 'OPEN'`).Scan(&n)
	return n, err
}
