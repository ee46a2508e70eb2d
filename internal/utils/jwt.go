package utils // package utils provides helper functions for access token creation and parsing

import (
    "errors" // sentinel errors for token validation
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// Roles carried in the "role" claim.  Coordinators run polls; members
// answer them.
const (
    RoleCoordinator = "COORDINATOR"
    RoleMember      = "MEMBER"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or algorithm, or missing
// the subject and role claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims of an access token.  Subject (sub) is the member
// id, Role is COORDINATOR or MEMBER, and ProjectID (pid) scopes the
// token to one production.
type Claims struct {
    Role      string `json:"role"`
    ProjectID string `json:"pid,omitempty"`
    jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are sent in the Authorization
// header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a member.  It takes the
// signing secret, the member ID, the project ID, the role and a TTL in
// minutes.  The JWT includes the standard claims sub, exp and iat plus
// role and pid.
func NewAccessToken(secret, memberID, projectID, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    // Calculate the expiration time by adding the TTL to the current UTC time.
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := Claims{
        Role:      role,
        ProjectID: projectID,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   memberID,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    // Create a new token object specifying the signing method (HS256) and
    // sign it with the provided secret.
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.
// Only HS256 is accepted; exp is required.
func ParseAccessToken(secret, raw string) (*Claims, error) {
    claims := &Claims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        // Return the secret bytes used to sign the token.
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    // A token without subject or role cannot be mapped to a member.
    if claims.Subject == "" || claims.Role == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
