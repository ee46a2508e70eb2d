package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/OptimisticPessimist/pscweb3/internal/logging"
    "github.com/OptimisticPessimist/pscweb3/internal/repository"
    "github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// statusFor maps an engine or repository error to an HTTP status.
func statusFor(err error) int {
    switch {
    case errors.Is(err, scheduling.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, scheduling.ErrInvalidInput), errors.Is(err, repository.ErrInvalidWindow):
        return http.StatusBadRequest
    case errors.Is(err, repository.ErrConflict):
        return http.StatusConflict
    case errors.Is(err, scheduling.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
        return http.StatusGatewayTimeout
    case errors.Is(err, context.Canceled):
        return http.StatusServiceUnavailable
    }
    return http.StatusInternalServerError
}

// writeError responds with {"error": ...}.  Client errors echo the
// message; server errors are logged and answered generically.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    if status >= http.StatusInternalServerError {
        logging.New("handler").Error("request failed",
            "method", c.Request().Method, "route", c.Path(), "status", status, "error", err)
        return c.JSON(status, echo.Map{"error": http.StatusText(status)})
    }
    return c.JSON(status, echo.Map{"error": err.Error()})
}
