package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated member has one of the specified roles.  The roles
// accepted should correspond to the values stored in the JWT's "role"
// claim.  If the role is not in the allowed set, the request is aborted
// with a 403 Forbidden response.  It assumes JWTAuth ran before it.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// RequireSelfOrRole lets a request through when the path parameter
// param equals the authenticated member id, or when the member holds
// one of roles.  Members may only write their own answers while a
// coordinator may fill in answers for anyone.
func RequireSelfOrRole(param string, roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            self := MemberID(c)
            if (self != "" && c.Param(param) == self) || allowed[Role(c)] {
                return next(c)
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
}
