package router

import (
	"github.com/labstack/echo/v4"

	"github.com/OptimisticPessimist/pscweb3/internal/handler"
	"github.com/OptimisticPessimist/pscweb3/internal/middleware"
	"github.com/OptimisticPessimist/pscweb3/internal/utils"
)

// RegisterMember registers the read and answer endpoints under /v1.  Any
// authenticated project member may read a poll's analysis; answers may
// only be written by the member themselves or by a coordinator, and go
// through the rate limiter.
func RegisterMember(e *echo.Echo, h *handler.PollHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleCoordinator, utils.RoleMember),
	)
	g.GET("/polls/:id/analysis", h.Analysis)
	g.GET("/polls/:id/recommendations", h.Recommendations)
	g.GET("/polls/:id/unanswered", h.Unanswered)

	g.PUT("/candidates/:id/answers/:member_id", h.UpsertAnswer,
		middleware.RequireSelfOrRole("member_id", utils.RoleCoordinator),
		limiter,
	)
}
