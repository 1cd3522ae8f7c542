package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, Identity{UserID: "u1", DisplayName: "Ada", Color: "#ff0000"})
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	id, err := Verify(opts, token)
	require.NoError(t, err)
	require.Equal(t, "u1", id.UserID)
	require.Equal(t, "Ada", id.DisplayName)
	require.Equal(t, "#ff0000", id.Color)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("right")), Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	claims := jwtlib.MapClaims{
		"sub": "u1",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(opts.Secret)
	require.NoError(t, err)

	_, err = Verify(opts, token)
	require.Error(t, err)
}

func TestGenerateRejectsUnknownAlg(t *testing.T) {
	opts := DefaultOptions([]byte("s"))
	opts.Alg = "RS256"

	_, _, err := Generate(opts, Identity{UserID: "u1"})
	require.Error(t, err)
}

func TestVerifyRequiresSub(t *testing.T) {
	opts := DefaultOptions([]byte("s"))
	token, _, err := Generate(opts, Identity{})
	require.NoError(t, err)

	_, err = Verify(opts, token)
	require.Error(t, err)
}
