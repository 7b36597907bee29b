package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quickcourt/quickcourt-api/internal/handler"
	"github.com/quickcourt/quickcourt-api/internal/middleware"
)

// RegisterUser registers the endpoints of role USER: booking, cancelling,
// booking history and venue reports.  The limiter runs after JWTAuth so
// buckets are keyed by user.
func RegisterUser(e *echo.Echo, b *handler.BookingHandler, r *handler.ReportHandler, opts Options) {
	// Routes are registered one by one instead of through a group-level
	// Use so the /v1 prefix stays free for the public and auth routes.
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole("USER"),
	}
	write := append(auth[:len(auth):len(auth)], opts.Limit)

	e.POST("/v1/bookings", b.Create, write...)
	e.DELETE("/v1/bookings/:id", b.Cancel, write...)
	e.GET("/v1/my-bookings", b.MyBookings, auth...)
	e.POST("/v1/reports", r.Create, write...)
}
