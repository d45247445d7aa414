package account

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair holds the tokens obtained at login. Identity is the token returned by the credential
// exchange; Access is the bearer token attached to telemetry and command requests.
type TokenPair struct {
	Identity string `json:"identity"`
	Access   string `json:"access"`
}

// The access token is only inspected to decide whether a cached token is still usable. The
// signature is checked by the server, not the client.
func (t TokenPair) claims() (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.Access, &claims); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}
	return &claims, nil
}

// Subject returns the "sub" claim of the access token.
func (t TokenPair) Subject() (string, error) {
	claims, err := t.claims()
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssuedAt returns the "iat" claim of the access token, or the zero time if it is not present.
func (t TokenPair) IssuedAt() (time.Time, error) {
	claims, err := t.claims()
	if err != nil {
		return time.Time{}, err
	}
	if claims.IssuedAt == nil {
		return time.Time{}, nil
	}
	return claims.IssuedAt.Time, nil
}

// ExpiresAt returns the "exp" claim of the access token, or the zero time if it is not present.
func (t TokenPair) ExpiresAt() (time.Time, error) {
	claims, err := t.claims()
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Expired returns true if the access token expires before now plus margin. Tokens that cannot be
// parsed or carry no expiry are treated as expired.
func (t TokenPair) Expired(now time.Time, margin time.Duration) bool {
	expiry, err := t.ExpiresAt()
	if err != nil || expiry.IsZero() {
		return true
	}
	return !now.Add(margin).Before(expiry)
}
