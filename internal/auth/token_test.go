package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", time.Hour)
	req.NoError(err)

	claims, err := ParseToken(secret, token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", time.Hour)
	req.NoError(err)

	_, err = ParseToken([]byte("other-secret"), token)
	req.Error(err)
}

func TestTokenExpiredRejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", -time.Minute)
	req.NoError(err)

	_, err = ParseToken(secret, token)
	req.Error(err)
}

func TestTokenGarbageRejected(t *testing.T) {
	_, err := ParseToken(secret, "not.a.token")
	require.Error(t, err)
}
