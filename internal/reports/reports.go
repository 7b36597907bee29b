// Package reports exposes venue reports behind a capability switch.  When
// the feature is off, callers get Disabled and never branch on a flag.
package reports

import (
	"context"
	"errors"
	"strings"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

var (
	ErrReportsDisabled = errors.New("reports are disabled")
	ErrEmptyReason     = errors.New("reason is required")
)

// Reports files and counts venue reports.
type Reports interface {
	Submit(ctx context.Context, reporterID, venueID uint64, reason string) (*model.Report, error)
	CountOpen(ctx context.Context) (int, error)
}

// Store is the persistence needed by the SQL-backed implementation.
type Store interface {
	Create(ctx context.Context, r *model.Report) error
	CountOpen(ctx context.Context) (int, error)
}

// New resolves the implementation once at start-up.
func New(enabled bool, store Store) Reports {
	if !enabled || store == nil {
		return Disabled{}
	}
	return &SQLReports{store: store}
}

// Disabled is the no-op implementation.
type Disabled struct{}

func (Disabled) Submit(context.Context, uint64, uint64, string) (*model.Report, error) {
	return nil, ErrReportsDisabled
}

func (Disabled) CountOpen(context.Context) (int, error) { return 0, nil }

// SQLReports persists reports through a Store.
type SQLReports struct{ store Store }

func (s *SQLReports) Submit(ctx context.Context, reporterID, venueID uint64, reason string) (*model.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	r := &model.Report{ReporterID: reporterID, VenueID: venueID, Reason: reason, Status: "OPEN"}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLReports) CountOpen(ctx context.Context) (int, error) { return s.store.CountOpen(ctx) }
