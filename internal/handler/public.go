// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// guests to browse approved venues, their courts and the free time on a court
// without authentication. Owner IDs and moderation fields are filtered from
// responses.

package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/quickcourt/quickcourt-api/internal/booking"
    "github.com/quickcourt/quickcourt-api/internal/model"
    "github.com/quickcourt/quickcourt-api/internal/repository"
)

// PublicVenues is the read side of the venue repository used for browsing.
type PublicVenues interface {
    GetApproved(ctx context.Context, id uint64) (*model.Venue, error)
    ListApproved(ctx context.Context, sport string) ([]*model.Venue, error)
}

// CourtLister lists the courts of a venue.
type CourtLister interface {
    ListByVenue(ctx context.Context, venueID uint64) ([]*model.Court, error)
}

// PublicHandler aggregates what unauthenticated browsing needs.
type PublicHandler struct {
    Venues   PublicVenues // approved venues only
    Courts   CourtLister  // courts of a venue
    Bookings BookingService
    Log      *zap.Logger
}

func NewPublicHandler(v PublicVenues, c CourtLister, b BookingService, log *zap.Logger) *PublicHandler {
    return &PublicHandler{Venues: v, Courts: c, Bookings: b, Log: orNop(log)}
}

// PublicVenue represents a venue exposed via the public API. It contains
// only safe fields.
type PublicVenue struct {
    ID          uint64   `json:"id"`
    Name        string   `json:"name"`
    Address     string   `json:"address"`
    Description *string  `json:"description,omitempty"`
    Sports      []string `json:"sports"`
}

// PublicCourt represents a court exposed via the public API.
type PublicCourt struct {
    ID           uint64  `json:"id"`
    Name         string  `json:"name"`
    SportType    string  `json:"sport_type"`
    PricePerHour float64 `json:"price_per_hour"`
    OpenTime     string  `json:"open_time"`
    CloseTime    string  `json:"close_time"`
}

func toPublicVenue(v *model.Venue) PublicVenue {
    sports := []string{}
    for _, s := range strings.Split(v.SportTypes, ",") {
        if s = strings.TrimSpace(s); s != "" {
            sports = append(sports, s)
        }
    }
    return PublicVenue{ID: v.ID, Name: v.Name, Address: v.Address, Description: v.Description, Sports: sports}
}

func toPublicCourt(c *model.Court) PublicCourt {
    return PublicCourt{
        ID:           c.ID,
        Name:         c.Name,
        SportType:    c.SportType,
        PricePerHour: c.PricePerHour,
        OpenTime:     c.OpenTime,
        CloseTime:    c.CloseTime,
    }
}

// ListVenues handles GET /v1/venues?sport=.
func (h *PublicHandler) ListVenues(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()
    venues, err := h.Venues.ListApproved(ctx, c.QueryParam("sport"))
    if err != nil {
        return internalError(c, h.Log, "failed to list venues", err)
    }
    items := make([]PublicVenue, 0, len(venues))
    for _, v := range venues {
        items = append(items, toPublicVenue(v))
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GetVenue handles GET /v1/venues/:id.  Venues awaiting approval are
// reported as missing.
func (h *PublicHandler) GetVenue(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid venue id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    v, err := h.Venues.GetApproved(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrVenueNotFound) {
            return errorJSON(c, http.StatusNotFound, "venue not found")
        }
        return internalError(c, h.Log, "failed to load venue", err)
    }
    return c.JSON(http.StatusOK, toPublicVenue(v))
}

// ListCourts handles GET /v1/venues/:id/courts.
func (h *PublicHandler) ListCourts(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid venue id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if _, err := h.Venues.GetApproved(ctx, id); err != nil {
        if errors.Is(err, repository.ErrVenueNotFound) {
            return errorJSON(c, http.StatusNotFound, "venue not found")
        }
        return internalError(c, h.Log, "failed to load venue", err)
    }
    courts, err := h.Courts.ListByVenue(ctx, id)
    if err != nil {
        return internalError(c, h.Log, "failed to list courts", err)
    }
    items := make([]PublicCourt, 0, len(courts))
    for _, ct := range courts {
        items = append(items, toPublicCourt(ct))
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Availability handles GET /v1/courts/:id/availability?date=YYYY-MM-DD.
func (h *PublicHandler) Availability(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid court id")
    }
    date := strings.TrimSpace(c.QueryParam("date"))
    if date == "" {
        return errorJSON(c, http.StatusBadRequest, "date is required")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    av, err := h.Bookings.Availability(ctx, id, date)
    if err != nil {
        switch {
        case errors.Is(err, booking.ErrInvalidDate):
            return errorJSON(c, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
        case errors.Is(err, repository.ErrCourtNotFound):
            return errorJSON(c, http.StatusNotFound, "court not found")
        }
        return internalError(c, h.Log, "failed to load availability", err)
    }
    return c.JSON(http.StatusOK, av)
}

// CheckSlot handles GET /v1/courts/:id/check?date=&start_time=&end_time=
// and reports whether the slot is free.
func (h *PublicHandler) CheckSlot(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid court id")
    }
    date := strings.TrimSpace(c.QueryParam("date"))
    if _, err := booking.ParseDate(date); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    taken, err := h.Bookings.HasConflict(ctx, id, date, c.QueryParam("start_time"), c.QueryParam("end_time"))
    if err != nil {
        switch {
        case errors.Is(err, booking.ErrInvalidClock), errors.Is(err, booking.ErrEmptyInterval):
            return errorJSON(c, http.StatusBadRequest, err.Error())
        case errors.Is(err, repository.ErrCourtNotFound):
            return errorJSON(c, http.StatusNotFound, "court not found")
        }
        return internalError(c, h.Log, "failed to check slot", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"available": !taken})
}
