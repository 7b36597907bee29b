package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/model"
	"github.com/quickcourt/quickcourt-api/internal/reports"
	"github.com/quickcourt/quickcourt-api/internal/repository"
)

// AdminVenues is the venue repository as used by admins.
type AdminVenues interface {
	ListByStatus(ctx context.Context, status model.VenueStatus) ([]*model.Venue, error)
	SetStatus(ctx context.Context, id uint64, status model.VenueStatus) error
}

// AdminUsers lists users and toggles bans.
type AdminUsers interface {
	List(ctx context.Context, role string) ([]model.User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}

// StatsSource computes dashboard counters.
type StatsSource interface {
	Stats(ctx context.Context) (repository.Stats, error)
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AdminHandler serves the moderation dashboard.
type AdminHandler struct {
	Venues  AdminVenues
	Users   AdminUsers
	Tokens  SessionRevoker
	Stats   StatsSource
	Reports reports.Reports
	Service BookingService
	Log     *zap.Logger
}

func NewAdminHandler(v AdminVenues, u AdminUsers, t SessionRevoker, s StatsSource, r reports.Reports, svc BookingService, log *zap.Logger) *AdminHandler {
	if r == nil {
		r = reports.Disabled{}
	}
	return &AdminHandler{Venues: v, Users: u, Tokens: t, Stats: s, Reports: r, Service: svc, Log: orNop(log)}
}

// ListVenues handles GET /v1/admin/venues?status=PENDING|APPROVED|REJECTED.
func (h *AdminHandler) ListVenues(c echo.Context) error {
	status := model.VenueStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	switch status {
	case "", model.VenuePending, model.VenueApproved, model.VenueRejected:
	default:
		return errorJSON(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	items, err := h.Venues.ListByStatus(ctx, status)
	if err != nil {
		return internalError(c, h.Log, "failed to list venues", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ApproveVenue handles POST /v1/admin/venues/:id/approve.
func (h *AdminHandler) ApproveVenue(c echo.Context) error {
	return h.setVenueStatus(c, model.VenueApproved)
}

// RejectVenue handles POST /v1/admin/venues/:id/reject.  Rejected venues
// disappear from public listings and refuse new bookings.
func (h *AdminHandler) RejectVenue(c echo.Context) error {
	return h.setVenueStatus(c, model.VenueRejected)
}

func (h *AdminHandler) setVenueStatus(c echo.Context, status model.VenueStatus) error {
	id, ok := parseID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Venues.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return errorJSON(c, http.StatusNotFound, "venue not found")
		}
		return internalError(c, h.Log, "failed to update venue", err)
	}
	h.Log.Info("venue status changed", zap.Uint64("venue_id", id), zap.String("status", string(status)))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// ListUsers handles GET /v1/admin/users?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	switch role {
	case "", model.RoleUser, model.RoleOwner, model.RoleAdmin:
	default:
		return errorJSON(c, http.StatusBadRequest, "invalid role")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	items, err := h.Users.List(ctx, role)
	if err != nil {
		return internalError(c, h.Log, "failed to list users", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// BanUser handles POST /v1/admin/users/:id/ban.  A banned user can no
// longer log in and loses every refresh token.
func (h *AdminHandler) BanUser(c echo.Context) error {
	return h.setActive(c, false)
}

// UnbanUser handles POST /v1/admin/users/:id/unban.
func (h *AdminHandler) UnbanUser(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *AdminHandler) setActive(c echo.Context, active bool) error {
	id, ok := parseID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Users.SetActive(ctx, id, active); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return errorJSON(c, http.StatusNotFound, "user not found")
		case errors.Is(err, repository.ErrForbidden):
			return errorJSON(c, http.StatusForbidden, "admins cannot be banned")
		}
		return internalError(c, h.Log, "failed to update user", err)
	}
	if !active {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return internalError(c, h.Log, "failed to revoke sessions", err)
		}
	}
	h.Log.Info("user active flag changed", zap.Uint64("user_id", id), zap.Bool("active", active))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": active})
}

// GetStats handles GET /v1/admin/stats.
func (h *AdminHandler) GetStats(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	st, err := h.Stats.Stats(ctx)
	if err != nil {
		return internalError(c, h.Log, "failed to compute stats", err)
	}
	open, err := h.Reports.CountOpen(ctx)
	if err != nil {
		return internalError(c, h.Log, "failed to count reports", err)
	}
	st.OpenReports = open
	return c.JSON(http.StatusOK, st)
}

// CompleteBooking handles POST /v1/admin/bookings/:id/complete.
func (h *AdminHandler) CompleteBooking(c echo.Context) error {
	return completeAs(c, h.Service, h.Log)
}
