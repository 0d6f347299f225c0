package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Introspection is what the client can read from an access token without
// verifying it. It drives expiry display and logging only; the backend verifies
// the token on every request.
type Introspection struct {
	Subject   string
	Email     string
	Role      string
	CompanyID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire from the client's point of view.
func (i *Introspection) Expired(now time.Time) bool {
	if i == nil || i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(i.ExpiresAt)
}

// Inspect parses rawToken without verifying its signature.
// Opaque (non-JWT) tokens return an error.
func Inspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	result := &Introspection{}
	result.Subject, _ = claims.GetSubject()
	result.Email, _ = claims["email"].(string)
	result.Role, _ = claims["role"].(string)
	result.CompanyID, _ = claims["companyId"].(string)

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	return result, nil
}
