// Package auth issues and verifies the HS256 session tokens that identify
// the acting owner. The subject claim carries the owner UUID.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for absent, malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload. Tokens minted by the hosted auth provider carry
// extra fields such as email and role; only sub is used here.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for ownerID that expires after ttl.
func Issue(secret, ownerID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth: signing secret is empty")
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return "", fmt.Errorf("auth: owner id %q is not a uuid", ownerID)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse verifies raw and returns the owner id from its subject.
func Parse(secret, raw string) (string, error) {
	if secret == "" || raw == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
