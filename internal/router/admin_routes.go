package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quickcourt/quickcourt-api/internal/handler"
	"github.com/quickcourt/quickcourt-api/internal/middleware"
)

// RegisterAdmin registers the moderation dashboard under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, opts Options) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.GET("/venues", a.ListVenues)
	g.POST("/venues/:id/approve", a.ApproveVenue)
	g.POST("/venues/:id/reject", a.RejectVenue)

	g.GET("/users", a.ListUsers)
	g.POST("/users/:id/ban", a.BanUser)
	g.POST("/users/:id/unban", a.UnbanUser)

	g.GET("/stats", a.GetStats)
	g.POST("/bookings/:id/complete", a.CompleteBooking)
}
