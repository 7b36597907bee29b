package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"go.uber.org/zap"             // structured request logging

	"github.com/quickcourt/quickcourt-api/internal/handler"    // import the handlers that implement business logic
	"github.com/quickcourt/quickcourt-api/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/quickcourt/quickcourt-api/internal/telemetry"  // tracing spans per request
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Public   *handler.PublicHandler
	Bookings *handler.BookingHandler
	Reports  *handler.ReportHandler
	Owner    *handler.OwnerHandler
	Admin    *handler.AdminHandler
}

// Options carries the cross-cutting middleware.  Nil limiter or cache
// middleware disables that feature.
type Options struct {
	JWTSecret string
	Limit     echo.MiddlewareFunc // token bucket on write routes
	Cache     echo.MiddlewareFunc // response cache on public listings
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(log *zap.Logger, h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Order matters: the request id must exist before the logger reads it,
	// and Recover sits innermost so a panic still gets logged as a 500.
	e.Use(middleware.RequestID())
	e.Use(telemetry.Middleware())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Recover(log))

	if opts.Limit == nil {
		opts.Limit = noop
	}
	if opts.Cache == nil {
		opts.Cache = noop
	}

	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, opts)
	RegisterPublic(e, h.Public, opts)
	RegisterUser(e, h.Bookings, h.Reports, opts)
	RegisterOwner(e, h.Owner, opts)
	RegisterAdmin(e, h.Admin, opts)
	return e
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers all authentication-related routes.  Unauthenticated
// operations live under /v1/auth, while /v1/me and /v1/logout-all need a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opts Options) {
	// Token-issuing endpoints are rate limited per IP since callers are anonymous.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, opts.Limit)
	g.POST("/login", a.Login, opts.Limit)
	// Rotates the refresh token; the old one stops working.
	g.POST("/refresh", a.Refresh, opts.Limit)
	// Revokes the refresh token in the body.  No JWT needed.
	g.POST("/logout", a.Logout)

	// Any role may read its own profile.
	jwt := middleware.JWTAuth(opts.JWTSecret)
	anyRole := middleware.RequireRole("USER", "OWNER", "ADMIN")
	e.GET("/v1/me", a.Me, jwt, anyRole)
	e.POST("/v1/logout-all", a.LogoutAll, jwt, anyRole)
}

// RegisterPublic registers unauthenticated browse endpoints.  Venue
// listings go through the response cache; availability is always live.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, opts Options) {
	// Approved venues, optionally filtered by ?sport=
	e.GET("/v1/venues", p.ListVenues, opts.Cache)
	// Venue details by id
	e.GET("/v1/venues/:id", p.GetVenue, opts.Cache)
	// Courts of a venue with price and operating hours
	e.GET("/v1/venues/:id/courts", p.ListCourts, opts.Cache)
	// Operating hours plus booked intervals of a court on ?date=
	e.GET("/v1/courts/:id/availability", p.Availability)
	// Quick check whether ?date=&start_time=&end_time= is free
	e.GET("/v1/courts/:id/check", p.CheckSlot)
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }
