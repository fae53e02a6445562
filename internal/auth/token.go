package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing admin token")
	errTokenExpired = errors.New("admin token expired")
)

// TokenInspector reads the admin token without verifying its signature.
// The backend owns the signing key; the proxy only refuses tokens that are
// plainly expired.
type TokenInspector struct {
	parser *jwt.Parser
	now    func() time.Time
	leeway time.Duration
}

// NewTokenInspector builds an inspector tolerating leeway of clock skew.
func NewTokenInspector(leeway time.Duration) *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
		now:    time.Now,
		leeway: leeway,
	}
}

// Check returns errTokenExpired when token is a JWT whose exp has passed.
// Opaque tokens are accepted as-is.
func (ti *TokenInspector) Check(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errMissingToken
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := ti.parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && ti.now().After(claims.ExpiresAt.Time.Add(ti.leeway)) {
		return errTokenExpired
	}
	return nil
}
