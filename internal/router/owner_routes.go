package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/quickcourt/quickcourt-api/internal/handler"    // owner handlers
	"github.com/quickcourt/quickcourt-api/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1/owner.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, opts Options) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Venues ----
	g.GET("/venues", o.ListVenues)
	g.POST("/venues", o.CreateVenue, opts.Limit)
	g.PUT("/venues/:id", o.UpdateVenue, opts.Limit)
	g.PATCH("/venues/:id", o.UpdateVenue, opts.Limit) // alias for clients that use PATCH
	g.DELETE("/venues/:id", o.DeleteVenue, opts.Limit)
	g.GET("/venues/:id/courts", o.ListCourts)
	g.GET("/venues/:id/bookings", o.VenueBookings)

	// ---- Courts ----
	g.POST("/courts", o.CreateCourt, opts.Limit)
	g.PUT("/courts/:id", o.UpdateCourt, opts.Limit)
	g.PATCH("/courts/:id", o.UpdateCourt, opts.Limit)
	g.DELETE("/courts/:id", o.DeleteCourt, opts.Limit)

	// ---- Bookings ----
	g.POST("/bookings/:id/complete", o.CompleteBooking)
}
