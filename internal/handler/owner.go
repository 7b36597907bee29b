package handler // handler package contains owner-specific venue and court handlers

import (
    "context"  // context for store interfaces
    "errors"   // errors.Is matches repository sentinels
    "net/http" // http provides status code constants
    "strings"  // strings offers trimming utilities

    "github.com/labstack/echo/v4" // echo is the web framework used for handlers
    "go.uber.org/zap"             // zap logs infrastructure failures

    "github.com/quickcourt/quickcourt-api/internal/booking"    // booking validates court hours and price
    "github.com/quickcourt/quickcourt-api/internal/model"      // model holds venue, court and booking types
    "github.com/quickcourt/quickcourt-api/internal/repository" // repository defines error types
)

// OwnerVenues is the venue repository as used by owners.
type OwnerVenues interface {
    Create(ctx context.Context, v *model.Venue) error
    GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Venue, error)
    ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Venue, error)
    Update(ctx context.Context, v *model.Venue) error
    DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// OwnerCourts is the court repository as used by owners.
type OwnerCourts interface {
    Create(ctx context.Context, ownerID uint64, c *model.Court) error
    ListByVenue(ctx context.Context, venueID uint64) ([]*model.Court, error)
    Update(ctx context.Context, ownerID uint64, c *model.Court) error
    DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// VenueBookings lists the bookings of a venue.
type VenueBookings interface {
    ListByVenue(ctx context.Context, venueID uint64, status model.BookingStatus) ([]repository.BookingDetail, error)
}

// OwnerHandler bundles what facility owners need to manage their venues.
type OwnerHandler struct {
    Venues   OwnerVenues    // venue persistence
    Courts   OwnerCourts    // court persistence
    Bookings VenueBookings  // booking listings per venue
    Service  BookingService // completes bookings
    Log      *zap.Logger
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any dependency is nil
func NewOwnerHandler(v OwnerVenues, c OwnerCourts, b VenueBookings, svc BookingService, log *zap.Logger) *OwnerHandler {
    if v == nil || c == nil || b == nil || svc == nil { // check for nil dependencies
        panic("nil dependency passed to NewOwnerHandler")
    }
    return &OwnerHandler{Venues: v, Courts: c, Bookings: b, Service: svc, Log: orNop(log)}
}

type venueReq struct {
    Name        string  `json:"name"`
    Address     string  `json:"address"`
    Description *string `json:"description"`
    SportTypes  string  `json:"sport_types"` // comma separated, e.g. "badminton,tennis"
}

type courtReq struct {
    VenueID      uint64  `json:"venue_id"`
    Name         string  `json:"name"`
    SportType    string  `json:"sport_type"`
    PricePerHour float64 `json:"price_per_hour"`
    OpenTime     string  `json:"open_time"`
    CloseTime    string  `json:"close_time"`
}

// venue validates the body and builds the model
func (r venueReq) venue(ownerID uint64) (*model.Venue, string) {
    name := strings.TrimSpace(r.Name)       // trim spaces around the venue name
    address := strings.TrimSpace(r.Address) // trim spaces around the address
    sports := repository.NormalizeSports(r.SportTypes)
    switch {
    case name == "":
        return nil, "name is required"
    case address == "":
        return nil, "address is required"
    case sports == "":
        return nil, "sport_types is required"
    }
    if r.Description != nil { // store an empty description as NULL
        d := strings.TrimSpace(*r.Description)
        r.Description = &d
        if d == "" {
            r.Description = nil
        }
    }
    return &model.Venue{OwnerID: ownerID, Name: name, Address: address, Description: r.Description, SportTypes: sports}, ""
}

// court validates the body and builds the model
func (r courtReq) court() (*model.Court, string) {
    name := strings.TrimSpace(r.Name)
    sport := strings.ToLower(strings.TrimSpace(r.SportType))
    if name == "" {
        return nil, "name is required"
    }
    if sport == "" {
        return nil, "sport_type is required"
    }
    opening, closing := strings.TrimSpace(r.OpenTime), strings.TrimSpace(r.CloseTime)
    if _, err := booking.ValidateCourt(r.PricePerHour, opening, closing); err != nil { // positive price, open < close
        return nil, err.Error()
    }
    return &model.Court{
        VenueID:      r.VenueID,
        Name:         name,
        SportType:    sport,
        PricePerHour: r.PricePerHour,
        OpenTime:     opening,
        CloseTime:    closing,
    }, ""
}

// ownerError maps repository sentinels to responses; anything else is a 500
func (h *OwnerHandler) ownerError(c echo.Context, err error, what string) error {
    switch {
    case errors.Is(err, repository.ErrVenueNotFound):
        return errorJSON(c, http.StatusNotFound, "venue not found")
    case errors.Is(err, repository.ErrCourtNotFound):
        return errorJSON(c, http.StatusNotFound, "court not found")
    case errors.Is(err, repository.ErrForbidden):
        return errorJSON(c, http.StatusForbidden, "forbidden")
    case errors.Is(err, repository.ErrConflict):
        return errorJSON(c, http.StatusConflict, "upcoming confirmed bookings exist")
    }
    return internalError(c, h.Log, what, err)
}

// ListVenues handles GET /v1/owner/venues
func (h *OwnerHandler) ListVenues(c echo.Context) error {
    ownerID, err := getUserID(c) // extract the owner ID from context
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    items, err := h.Venues.ListByOwner(ctx, ownerID)
    if err != nil {
        return internalError(c, h.Log, "failed to list venues", err)
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// CreateVenue handles POST /v1/owner/venues.  New venues wait for admin approval.
func (h *OwnerHandler) CreateVenue(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    var body venueReq
    if err := c.Bind(&body); err != nil { // attempt to bind the request body into the struct
        return errorJSON(c, http.StatusBadRequest, "invalid request body")
    }
    v, msg := body.venue(ownerID)
    if v == nil {
        return errorJSON(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Venues.Create(ctx, v); err != nil {
        return internalError(c, h.Log, "could not create venue", err)
    }
    return c.JSON(http.StatusCreated, v) // return 201 and the created venue
}

// UpdateVenue handles PUT /v1/owner/venues/:id
func (h *OwnerHandler) UpdateVenue(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    var body venueReq
    if err := c.Bind(&body); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid request body")
    }
    v, msg := body.venue(ownerID)
    if v == nil {
        return errorJSON(c, http.StatusBadRequest, msg)
    }
    v.ID = id
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Venues.Update(ctx, v); err != nil {
        return h.ownerError(c, err, "could not update venue")
    }
    return c.JSON(http.StatusOK, v)
}

// DeleteVenue handles DELETE /v1/owner/venues/:id.  It is refused with 409
// while the venue has upcoming confirmed bookings.
func (h *OwnerHandler) DeleteVenue(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Venues.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
        return h.ownerError(c, err, "delete failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// ListCourts handles GET /v1/owner/venues/:id/courts
func (h *OwnerHandler) ListCourts(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if _, err := h.Venues.GetByIDAndOwner(ctx, id, ownerID); err != nil { // owners only see their own venues
        return h.ownerError(c, err, "failed to load venue")
    }
    items, err := h.Courts.ListByVenue(ctx, id)
    if err != nil {
        return internalError(c, h.Log, "failed to list courts", err)
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// CreateCourt handles POST /v1/owner/courts
func (h *OwnerHandler) CreateCourt(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    var body courtReq
    if err := c.Bind(&body); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid request body")
    }
    if body.VenueID == 0 {
        return errorJSON(c, http.StatusBadRequest, "venue_id is required")
    }
    ct, msg := body.court()
    if ct == nil {
        return errorJSON(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Courts.Create(ctx, ownerID, ct); err != nil {
        return h.ownerError(c, err, "could not create court")
    }
    return c.JSON(http.StatusCreated, ct)
}

// UpdateCourt handles PUT /v1/owner/courts/:id.  Price and hour edits
// only affect bookings made afterwards.
func (h *OwnerHandler) UpdateCourt(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    var body courtReq
    if err := c.Bind(&body); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid request body")
    }
    ct, msg := body.court()
    if ct == nil {
        return errorJSON(c, http.StatusBadRequest, msg)
    }
    ct.ID = id
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Courts.Update(ctx, ownerID, ct); err != nil {
        return h.ownerError(c, err, "could not update court")
    }
    return c.JSON(http.StatusOK, ct)
}

// DeleteCourt handles DELETE /v1/owner/courts/:id
func (h *OwnerHandler) DeleteCourt(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if err := h.Courts.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
        return h.ownerError(c, err, "delete failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// VenueBookings handles GET /v1/owner/venues/:id/bookings?status=
func (h *OwnerHandler) VenueBookings(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid id")
    }
    status, ok := parseBookingStatus(c.QueryParam("status"))
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid status")
    }
    ctx, cancel := requestContext(c)
    defer cancel()
    if _, err := h.Venues.GetByIDAndOwner(ctx, id, ownerID); err != nil {
        return h.ownerError(c, err, "failed to load venue")
    }
    items, err := h.Bookings.ListByVenue(ctx, id, status)
    if err != nil {
        return internalError(c, h.Log, "failed to list bookings", err)
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// CompleteBooking handles POST /v1/owner/bookings/:id/complete
func (h *OwnerHandler) CompleteBooking(c echo.Context) error {
    return completeAs(c, h.Service, h.Log)
}

// parseBookingStatus accepts "", Confirmed, Cancelled or Completed in any case
func parseBookingStatus(raw string) (model.BookingStatus, bool) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return "", true
    }
    for _, s := range []model.BookingStatus{model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted} {
        if strings.EqualFold(raw, string(s)) {
            return s, true
        }
    }
    return "", false
}
