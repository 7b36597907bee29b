package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/booking"
	"github.com/quickcourt/quickcourt-api/internal/repository"
)

// BookingService is the booking orchestrator as seen by HTTP handlers.
type BookingService interface {
	CreateBooking(ctx context.Context, userID uint64, req booking.CreateRequest) (booking.Result, error)
	CancelUserBooking(ctx context.Context, bookingID, userID uint64) (booking.Result, error)
	CompleteBooking(ctx context.Context, bookingID uint64, actor booking.Actor) (booking.Result, error)
	HasConflict(ctx context.Context, courtID uint64, date, start, end string) (bool, error)
	Availability(ctx context.Context, courtID uint64, date string) (*booking.Availability, error)
}

// UserBookings lists a user's booking history.
type UserBookings interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error)
}

// BookingHandler serves the booking endpoints of role USER.
type BookingHandler struct {
	Service  BookingService
	Bookings UserBookings
	Log      *zap.Logger
}

func NewBookingHandler(svc BookingService, bookings UserBookings, log *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Bookings: bookings, Log: orNop(log)}
}

// Create handles POST /v1/bookings.  Business failures (bad input, taken
// slot, declined payment) answer 400 with success=false; only
// infrastructure errors answer 500.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req booking.CreateRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.CourtID == 0 {
		return c.JSON(http.StatusBadRequest, booking.Failed(booking.FailureInvalid, "court_id is required."))
	}
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)

	// no requestTimeout here: the service bounds the payment call itself
	res, err := h.Service.CreateBooking(c.Request().Context(), uid, req)
	if err != nil {
		return internalError(c, h.Log, "failed to create booking", err)
	}
	if !res.Success {
		return c.JSON(http.StatusBadRequest, res)
	}
	return c.JSON(http.StatusCreated, res)
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	items, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return internalError(c, h.Log, "failed to list bookings", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	res, err := h.Service.CancelUserBooking(ctx, id, uid)
	if err != nil {
		return internalError(c, h.Log, "failed to cancel booking", err)
	}
	if !res.Success {
		return c.JSON(resultStatus(res), res)
	}
	return c.JSON(http.StatusOK, res)
}

// completeAs runs CompleteBooking for the authenticated caller.  Shared by
// the owner and admin routes.
func completeAs(c echo.Context, svc BookingService, log *zap.Logger) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	role, _ := roleOf(c)
	id, ok := parseID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	res, err := svc.CompleteBooking(ctx, id, booking.Actor{ID: uid, Role: role})
	if err != nil {
		return internalError(c, log, "failed to complete booking", err)
	}
	if !res.Success {
		return c.JSON(resultStatus(res), res)
	}
	return c.JSON(http.StatusOK, res)
}
