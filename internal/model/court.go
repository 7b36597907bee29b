package model

import "time"

// Court is a bookable unit within a venue.  It carries its own sport
// type, hourly price and daily operating hours.  Operating hours are
// "HH:MM" strings and the opening time is always before the closing
// time.  Price and hour edits only affect bookings made afterwards.
//
// Fields:
//  ID           – primary key identifier.
//  VenueID      – venue that contains the court.
//  Name         – court label within the venue (e.g. "Court 1").
//  SportType    – sport played on the court (e.g. badminton).
//  PricePerHour – hourly price, always positive.
//  OpenTime     – daily opening time, "HH:MM".
//  CloseTime    – daily closing time, "HH:MM".
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Court struct {
    ID           uint64    `json:"id"`             // courts.id
    VenueID      uint64    `json:"venue_id"`       // courts.venue_id
    Name         string    `json:"name"`           // courts.name
    SportType    string    `json:"sport_type"`     // courts.sport_type
    PricePerHour float64   `json:"price_per_hour"` // courts.price_per_hour
    OpenTime     string    `json:"open_time"`      // courts.open_time
    CloseTime    string    `json:"close_time"`     // courts.close_time
    CreatedAt    time.Time `json:"created_at"`     // courts.created_at
    UpdatedAt    time.Time `json:"updated_at"`     // courts.updated_at
}

// CourtWithVenue is a court joined with the owning venue's owner and
// approval status.  The booking flow reads it to decide whether a
// court may be booked and which venue to stamp on the booking.
type CourtWithVenue struct {
    Court
    VenueOwnerID uint64      `json:"venue_owner_id"`
    VenueName    string      `json:"venue_name"`
    VenueStatus  VenueStatus `json:"venue_status"`
}
