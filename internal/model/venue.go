package model

import "time"

// VenueStatus is the admin approval state of a venue.
type VenueStatus string

const (
    VenuePending  VenueStatus = "PENDING"
    VenueApproved VenueStatus = "APPROVED"
    VenueRejected VenueStatus = "REJECTED"
)

// Venue represents a sports facility owned by a facility owner.
// A venue contains one or more courts and must be approved by an
// admin before it is listed publicly or accepts bookings.  This
// struct corresponds to a row in the `venues` table.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user ID of the facility owner.
//  Name        – display name of the venue.
//  Address     – free-form street address.
//  Description – optional description.
//  SportTypes  – comma separated list of sports offered.
//  Status      – approval status (PENDING, APPROVED, REJECTED).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Venue struct {
    ID          uint64      `json:"id"`          // venues.id
    OwnerID     uint64      `json:"owner_id"`    // venues.owner_id
    Name        string      `json:"name"`        // venues.name
    Address     string      `json:"address"`     // venues.address
    Description *string     `json:"description"` // venues.description (nullable)
    SportTypes  string      `json:"sport_types"` // venues.sport_types
    Status      VenueStatus `json:"status"`      // venues.status
    CreatedAt   time.Time   `json:"created_at"`  // venues.created_at
    UpdatedAt   time.Time   `json:"updated_at"`  // venues.updated_at
}
