package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Entropy sizes in bytes before encoding.
const (
	// TokenSize is the size of opaque bearer tokens handed to dashboard
	// clients (256 bits, 43 chars base64url).
	TokenSize = 32
	// SessionIDSize is the size of session identifiers (256 bits).
	SessionIDSize = 32
)

// NewToken returns a fresh opaque bearer token. The value carries no
// decodable structure; it is only ever compared against the token table.
// Returns an error if the random number generator fails.
func NewToken() (string, error) {
	return randomString(TokenSize)
}

// MustNewToken is like NewToken but panics on error. Use only where a
// failing CSPRNG is unrecoverable anyway.
func MustNewToken() string {
	token, err := NewToken()
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate token: %v", err))
	}
	return token
}

// NewSessionID returns a fresh unguessable session identifier.
func NewSessionID() (string, error) {
	return randomString(SessionIDSize)
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
