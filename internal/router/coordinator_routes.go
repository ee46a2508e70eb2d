package router

// This file registers coordinator-only routes: poll and candidate
// management plus reminder dispatch.  Members can read analyses and
// write their own answers through the member routes instead.

import (
    "github.com/labstack/echo/v4"

    "github.com/OptimisticPessimist/pscweb3/internal/handler"
    "github.com/OptimisticPessimist/pscweb3/internal/middleware"
    "github.com/OptimisticPessimist/pscweb3/internal/utils"
)

// RegisterCoordinator mounts the COORDINATOR-scoped endpoints under /v1.
func RegisterCoordinator(e *echo.Echo, h *handler.PollHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(utils.RoleCoordinator),
    )

    // ---- Polls ----
    g.POST("/projects/:id/polls", h.CreatePoll)
    g.POST("/polls/:id/close", h.ClosePoll)
    g.POST("/polls/:id/remind", h.Remind)

    // ---- Candidates ----
    g.POST("/polls/:id/candidates", h.AddCandidate)
    g.DELETE("/candidates/:id", h.DeleteCandidate) // cascades to answers
}
