package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// publicTokenBytes is the entropy of a share link token (256 bits).
const publicTokenBytes = 32

// PublicTokenLength is the encoded length of a public token.
var PublicTokenLength = base64.RawURLEncoding.EncodedLen(publicTokenBytes)

// NewPublicToken returns a fresh unguessable token. It is independent of the
// invoice id and number.
func NewPublicToken() (string, error) {
	buf := make([]byte, publicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidPublicTokenShape reports whether token could have been produced by
// NewPublicToken. Callers use it to reject garbage without a query.
func ValidPublicTokenShape(token string) bool {
	if len(token) != PublicTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
