package utils

import (
    "errors"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", "member-1", "proj-1", RoleCoordinator, 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if d := time.Until(tok.Exp); d < 14*time.Minute || d > 15*time.Minute {
        t.Errorf("Expected expiry in ~15m, got %v", d)
    }

    claims, err := ParseAccessToken("s3cret", tok.Token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    if claims.Subject != "member-1" || claims.ProjectID != "proj-1" || claims.Role != RoleCoordinator {
        t.Errorf("unexpected claims: %+v", claims)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, err := NewAccessToken("s3cret", "m", "p", RoleMember, 5)
    if err != nil {
        t.Fatal(err)
    }
    expired, err := NewAccessToken("s3cret", "m", "p", RoleMember, -5)
    if err != nil {
        t.Fatal(err)
    }
    noRole, err := NewAccessToken("s3cret", "m", "p", "", 5)
    if err != nil {
        t.Fatal(err)
    }
    none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "m", "role": RoleMember, "exp": time.Now().Add(time.Hour).Unix()}).
        SignedString(jwt.UnsafeAllowNoneSignatureType)
    if err != nil {
        t.Fatal(err)
    }

    tests := []struct {
        name   string
        secret string
        raw    string
    }{
        {"wrong secret", "other", good.Token},
        {"expired", "s3cret", expired.Token},
        {"missing role", "s3cret", noRole.Token},
        {"alg none", "s3cret", none},
        {"garbage", "s3cret", "not.a.jwt"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if _, err := ParseAccessToken(tt.secret, tt.raw); !errors.Is(err, ErrInvalidToken) {
                t.Errorf("Expected ErrInvalidToken, got %v", err)
            }
        })
    }
}
