package middleware

import (
    "fmt"
    "net/http"
    "runtime/debug"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                r := recover()
                if r == nil {
                    return
                }
                if r == http.ErrAbortHandler {
                    panic(r)
                }
                log.Error("panic recovered",
                    zap.String("request_id", GetRequestID(c)),
                    zap.String("route", c.Path()),
                    zap.Any("panic", r),
                    zap.ByteString("stack", debug.Stack()),
                )
                if c.Response().Committed {
                    err = fmt.Errorf("panic after response started: %v", r)
                    return
                }
                err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }()
            return next(c)
        }
    }
}
