package model

import "time"

// Report is a complaint filed by a user against a venue.  Admins review
// open reports from the dashboard.
type Report struct {
    ID         uint64    `json:"id"`          // reports.id
    ReporterID uint64    `json:"reporter_id"` // reports.reporter_id
    VenueID    uint64    `json:"venue_id"`    // reports.venue_id
    Reason     string    `json:"reason"`      // reports.reason
    Status     string    `json:"status"`      // reports.status (OPEN, RESOLVED)
    CreatedAt  time.Time `json:"created_at"`  // reports.created_at
}
