package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator mints HS256 access tokens in the backend's claim layout. It exists for
// local tooling and tests; production tokens are always issued by the backend.
type Creator struct {
	signer Signer
	expiry time.Duration
}

// NewCreator creates a token creator signing with an HS256 secret
func NewCreator(secret string, expiry time.Duration) *Creator {
	return NewCreatorWithSigner(NewHMACSigner(secret), expiry)
}

func NewCreatorWithSigner(signer Signer, expiry time.Duration) *Creator {
	return &Creator{
		signer: signer,
		expiry: expiry,
	}
}

// Subject is the principal a token is minted for
type Subject struct {
	UserID    string
	Email     string
	Role      string
	CompanyID string
}

// CreateAccessToken creates a signed access token for subject
func (c *Creator) CreateAccessToken(subject Subject) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":       subject.UserID,
		"email":     subject.Email,
		"role":      subject.Role,
		"companyId": subject.CompanyID,
		"iat":       now.Unix(),
		"exp":       now.Add(c.expiry).Unix(),
		"jti":       uuid.New().String(),
	}

	return c.signer.Sign(claims)
}

// Verify checks the signature and expiry of a token minted by this creator
func (c *Creator) Verify(rawToken string) (*Introspection, error) {
	parsed, err := jwtlib.Parse(rawToken, c.signer.VerificationKey, jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return Inspect(rawToken)
}
