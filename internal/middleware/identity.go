package middleware

// identity.go holds the accessors for the caller identity stored by JWTAuth.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID.  It reports false on
// anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
    return toUint64(c.Get(CtxUserID))
}

// Role returns the authenticated user's role.
func Role(c echo.Context) (string, bool) {
    r, ok := c.Get(CtxRole).(string)
    return r, ok && r != ""
}

// toUint64 normalizes the numeric shapes an ID may take after a trip
// through JSON or a handler test.
func toUint64(v interface{}) (uint64, bool) {
    switch id := v.(type) {
    case uint64:
        return id, id > 0
    case float64:
        if id <= 0 || id != float64(uint64(id)) {
            return 0, false
        }
        return uint64(id), true
    case int:
        return uint64(id), id > 0
    case int64:
        return uint64(id), id > 0
    case string:
        n, err := strconv.ParseUint(id, 10, 64)
        return n, err == nil && n > 0
    }
    return 0, false
}

// subject identifies the caller for rate limiting, "anon" when unauthenticated.
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
