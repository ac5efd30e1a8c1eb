// Package jwt generates and parses the JWT tokens that carry the
// caller identity (user UID, e-mail and role) between requests.
package jwt

import (
	"time"
)

// Maker creates and verifies tokens.
type Maker interface {
	// GenerateToken signs a token for the given user.
	GenerateToken(userUID, email, role string) (string, error)
	// ParseToken verifies a token and returns its claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker with an HS256 secret key and a token TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker builds a MakerImpl from the secret key and TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
