package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// 32 bytes of entropy encodes to 43 base64url chars.
	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, TokenSize)

	// Verify tokens are unique (generate another and compare).
	token2, err := NewToken()
	require.NoError(t, err)
	require.NotEqual(t, token, token2, "tokens should be unique")
}

func TestNewSessionID(t *testing.T) {
	id, err := NewSessionID()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(id)
	require.NoError(t, err)
	require.Len(t, raw, SessionIDSize)
}

func TestMustNewToken(t *testing.T) {
	require.NotEmpty(t, MustNewToken())
}
