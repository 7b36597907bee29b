package handler // handler defines http handlers

import (
    "context"  // context bounds downstream calls
    "errors"   // errors provides sentinel values used in getUserID
    "net/http" // net/http provides status codes
    "strconv"  // strconv converts path params to numbers
    "time"     // time defines the per-request timeout

    "github.com/labstack/echo/v4" // echo defines request context types
    "go.uber.org/zap"             // zap logs infrastructure failures

    "github.com/quickcourt/quickcourt-api/internal/booking"    // booking defines result kinds
    "github.com/quickcourt/quickcourt-api/internal/middleware" // middleware exposes the caller identity
)

// requestTimeout bounds every database round trip made by a handler.
const requestTimeout = 5 * time.Second

var errNoUser = errors.New("invalid user_id in context")

// requestContext derives the bounded context used for store calls.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the authenticated user's ID set by JWTAuth
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c) // read the normalized user_id
    if !ok {                       // missing or malformed identity
        return 0, errNoUser
    }
    return id, nil
}

// roleOf returns the authenticated caller's role
func roleOf(c echo.Context) (string, bool) {
    return middleware.Role(c)
}

// parseID reads a positive numeric path parameter
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64) // parse as base-10 uint64
    if err != nil || id == 0 {                          // zero is never a valid key
        return 0, false
    }
    return id, true
}

// errorJSON writes the standard {"error": msg} body
func errorJSON(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// internalError logs err with the request id and answers a generic 500
func internalError(c echo.Context, log *zap.Logger, msg string, err error) error {
    log.Error(msg,
        zap.String("request_id", middleware.GetRequestID(c)),
        zap.String("path", c.Path()),
        zap.Error(err),
    )
    return errorJSON(c, http.StatusInternalServerError, msg)
}

// resultStatus maps a failed booking result to its HTTP status
func resultStatus(r booking.Result) int {
    switch r.Kind {
    case booking.FailureNotFound:
        return http.StatusNotFound
    case booking.FailureForbidden:
        return http.StatusForbidden
    default: // invalid input, conflicts and declined payments
        return http.StatusBadRequest
    }
}

// orNop substitutes a no-op logger for nil
func orNop(log *zap.Logger) *zap.Logger {
    if log == nil {
        return zap.NewNop()
    }
    return log
}
