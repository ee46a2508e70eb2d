package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/OptimisticPessimist/pscweb3/internal/utils" // access token parsing
)

// Context keys set by JWTAuth.
const (
    ctxMemberID  = "member_id"
    ctxRole      = "role"
    ctxProjectID = "project_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's member, role and project claims into the request
// context.  The provided secret must match the one used when issuing tokens.
// Handlers read the values back with MemberID, Role and ProjectID.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // Signature, algorithm (HS256 only) and expiry are checked by
            // ParseAccessToken; any failure is a plain 401.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(ctxMemberID, claims.Subject)
            c.Set(ctxRole, claims.Role)
            c.Set(ctxProjectID, claims.ProjectID)
            return next(c)
        }
    }
}
