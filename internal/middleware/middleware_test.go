package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/OptimisticPessimist/pscweb3/internal/config"
    "github.com/OptimisticPessimist/pscweb3/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, memberID, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, memberID, "proj-1", role, 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    return "Bearer " + tok.Token
}

// serve runs one request through an Echo instance with the given
// middleware chain in front of a handler that echoes the identity.
func serve(t *testing.T, method, route, target, auth string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.Add(method, route, func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"member_id": MemberID(c), "role": Role(c), "project_id": ProjectID(c)})
    }, mw...)

    req := httptest.NewRequest(method, target, nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    tests := []struct {
        name   string
        auth   string
        status int
    }{
        {"missing header", "", http.StatusUnauthorized},
        {"wrong scheme", "Basic abc", http.StatusUnauthorized},
        {"garbage token", "Bearer nope", http.StatusUnauthorized},
        {"valid", bearer(t, "m1", utils.RoleMember), http.StatusOK},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := serve(t, http.MethodGet, "/me", "/me", tt.auth, JWTAuth(testSecret))
            if rec.Code != tt.status {
                t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
            }
        })
    }

    rec := serve(t, http.MethodGet, "/me", "/me", bearer(t, "m1", utils.RoleMember), JWTAuth(testSecret))
    want := `{"member_id":"m1","project_id":"proj-1","role":"MEMBER"}` + "\n"
    if rec.Body.String() != want {
        t.Errorf("Expected body %s, got %s", want, rec.Body.String())
    }
}

func TestRequireRole(t *testing.T) {
    auth := JWTAuth(testSecret)
    coordOnly := RequireRole(utils.RoleCoordinator)

    if rec := serve(t, http.MethodPost, "/polls", "/polls", bearer(t, "m1", utils.RoleMember), auth, coordOnly); rec.Code != http.StatusForbidden {
        t.Errorf("member on coordinator route: expected 403, got %d", rec.Code)
    }
    if rec := serve(t, http.MethodPost, "/polls", "/polls", bearer(t, "c1", utils.RoleCoordinator), auth, coordOnly); rec.Code != http.StatusOK {
        t.Errorf("coordinator: expected 200, got %d", rec.Code)
    }
}

func TestRequireSelfOrRole(t *testing.T) {
    auth := JWTAuth(testSecret)
    guard := RequireSelfOrRole("member_id", utils.RoleCoordinator)
    route := "/answers/:member_id"

    tests := []struct {
        name   string
        target string
        auth   string
        status int
    }{
        {"self", "/answers/m1", bearer(t, "m1", utils.RoleMember), http.StatusOK},
        {"other member", "/answers/m2", bearer(t, "m1", utils.RoleMember), http.StatusForbidden},
        {"coordinator for other", "/answers/m2", bearer(t, "c1", utils.RoleCoordinator), http.StatusOK},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := serve(t, http.MethodPut, route, tt.target, tt.auth, auth, guard)
            if rec.Code != tt.status {
                t.Errorf("Expected %d, got %d", tt.status, rec.Code)
            }
        })
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/candidates/c1/answers/m1", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/candidates/:candidate_id/answers/:member_id")

    tests := []struct {
        strategy string
        member   string
        want     string
    }{
        {"ip", "m1", "rl:ip:10.0.0.1"},
        {"member", "m1", "rl:member:m1"},
        {"member", "", "rl:member:guest"},
        {"IP", "m2", "rl:ip:10.0.0.1"},
        {"member_route", "m1", "rl:member:m1:route:PUT /v1/candidates/:candidate_id/answers/:member_id"},
        {"", "m1", "rl:member:m1:route:PUT /v1/candidates/:candidate_id/answers/:member_id"},
    }
    for _, tt := range tests {
        t.Run(tt.strategy+"/"+tt.member, func(t *testing.T) {
            c.Set(ctxMemberID, tt.member)
            got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
            if got != tt.want {
                t.Errorf("Expected %q, got %q", tt.want, got)
            }
        })
    }
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)
    if rec := serve(t, http.MethodGet, "/x", "/x", "", mw); rec.Code != http.StatusOK {
        t.Errorf("Expected 200 without redis, got %d", rec.Code)
    }
}
