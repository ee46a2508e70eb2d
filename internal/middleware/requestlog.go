package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/OptimisticPessimist/pscweb3/internal/logging"
)

// RequestLog writes one structured line per request after the handler
// returns.  Handler errors are passed to Echo's error handler first so
// the logged status matches what the client receives.
func RequestLog() echo.MiddlewareFunc {
    log := logging.New("http")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            attrs := []any{
                "method", c.Request().Method,
                "route", c.Path(),
                "status", c.Response().Status,
                "duration_ms", time.Since(start).Milliseconds(),
            }
            if id := MemberID(c); id != "" {
                attrs = append(attrs, "member_id", id)
            }
            if c.Response().Status >= 500 {
                log.Error("request", append(attrs, "error", err)...)
            } else {
                log.Info("request", attrs...)
            }
            return nil
        }
    }
}
