package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/handler"
	"github.com/quickcourt/quickcourt-api/internal/utils"
)

const secret = "router-secret"

func newTestServer() *echo.Echo {
	// Guarded routes are rejected by middleware before any handler runs,
	// so the handlers can be built without stores.
	return New(zap.NewNop(), Handlers{
		Health:   &handler.HealthHandler{},
		Auth:     &handler.AuthHandler{},
		Public:   &handler.PublicHandler{},
		Bookings: &handler.BookingHandler{},
		Reports:  &handler.ReportHandler{},
		Owner:    &handler.OwnerHandler{},
		Admin:    &handler.AdminHandler{},
	}, Options{JWTSecret: secret})
}

func serve(t *testing.T, e *echo.Echo, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, err := utils.NewTokenIssuer(secret, 5, 1).Access(7, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestServer()
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/venues",
		"GET /v1/venues/:id",
		"GET /v1/venues/:id/courts",
		"GET /v1/courts/:id/availability",
		"POST /v1/bookings",
		"GET /v1/my-bookings",
		"DELETE /v1/bookings/:id",
		"POST /v1/reports",
		"GET /v1/owner/venues",
		"POST /v1/owner/venues",
		"GET /v1/owner/venues/:id/bookings",
		"POST /v1/owner/courts",
		"DELETE /v1/owner/courts/:id",
		"POST /v1/owner/bookings/:id/complete",
		"GET /v1/admin/venues",
		"POST /v1/admin/venues/:id/approve",
		"POST /v1/admin/venues/:id/reject",
		"GET /v1/admin/users",
		"POST /v1/admin/users/:id/ban",
		"POST /v1/admin/users/:id/unban",
		"GET /v1/admin/stats",
		"POST /v1/admin/bookings/:id/complete",
	} {
		assert.True(t, got[want], want)
	}
}

func TestRouteGuards(t *testing.T) {
	e := newTestServer()

	rec := serve(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, serve(t, e, http.MethodPost, "/v1/bookings", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, e, http.MethodPost, "/v1/bookings", "OWNER").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, e, http.MethodGet, "/v1/admin/stats", "USER").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, e, http.MethodGet, "/v1/owner/venues", "ADMIN").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, e, http.MethodGet, "/v1/me", "").Code)
}
