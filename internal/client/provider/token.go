package provider

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the subset of ID-token claims the client cares about.
type tokenClaims struct {
	UserID string
	Email  string
	Name   string
	Expiry time.Time
}

// parseIDToken extracts claims from a provider-issued ID token without
// verifying the signature. Verification already happened provider-side; the
// client only needs the expiry for refresh scheduling and the identity fields
// as a fallback when the API response omits them.
func parseIDToken(raw string) (*tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}

	tc := &tokenClaims{}
	if v, ok := claims["user_id"].(string); ok {
		tc.UserID = v
	} else if sub, err := claims.GetSubject(); err == nil {
		tc.UserID = sub
	}
	if v, ok := claims["email"].(string); ok {
		tc.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		tc.Name = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.Expiry = exp.Time
	}
	return tc, nil
}
