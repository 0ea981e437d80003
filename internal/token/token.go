// Package token issues and verifies the bearer credentials that carry a
// principal id and an expiry. Verification is pure: it never touches the
// store, so a verified token still has to pass principal resolution before
// any access is granted.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabledeck/tabledeck/internal/apperr"
)

// Claims is the JWT payload of a tabledeck bearer token.
type Claims struct {
	// UserID is the principal the token was issued to.
	UserID uint64 `json:"uid"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens with a shared HS256 secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service. ttl bounds the lifetime of every
// issued token.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed bearer token for the given principal.
func (s *Service) Issue(userID uint64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify validates a raw bearer string and resolves it to a principal id.
// Every failure mode (empty, malformed, bad signature, expired, wrong
// algorithm) collapses to apperr.ErrUnauthenticated; no detail about why a
// token was rejected leaks to the caller.
func (s *Service) Verify(raw string) (uint64, error) {
	if raw == "" {
		return 0, apperr.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, apperr.ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return 0, apperr.ErrUnauthenticated
	}

	return claims.UserID, nil
}
