package middleware

// identity.go defines accessors for the identity JWTAuth stores in the
// Echo context. They return "" when the request is unauthenticated so
// handlers can rely on them without type assertions.

import "github.com/labstack/echo/v4"

func ctxString(c echo.Context, key string) string {
    if s, ok := c.Get(key).(string); ok {
        return s
    }
    return ""
}

// MemberID returns the authenticated member's id.
func MemberID(c echo.Context) string { return ctxString(c, ctxMemberID) }

// Role returns the authenticated role claim.
func Role(c echo.Context) string { return ctxString(c, ctxRole) }

// ProjectID returns the project the token is scoped to.
func ProjectID(c echo.Context) string { return ctxString(c, ctxProjectID) }

// memberKey is the rate-limit identity: the member id or "guest".
func memberKey(c echo.Context) string {
    if id := MemberID(c); id != "" {
        return id
    }
    return "guest"
}
