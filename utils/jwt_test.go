package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesol/inboxpilot/config"
)

func TestBearerTokenRoundTrip(t *testing.T) {
	config.AppConfig.AuthTokenSecret = "test-secret"

	token, err := MintToken("auth0|abc123", "jordan@example.com", "Jordan Reyes")
	require.NoError(t, err)

	claims, err := ParseBearerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc123", claims.Subject)
	assert.Equal(t, "jordan@example.com", claims.Email)
	assert.Equal(t, "Jordan Reyes", claims.FullName)
}

func TestParseBearerTokenRejectsWrongSecret(t *testing.T) {
	config.AppConfig.AuthTokenSecret = "test-secret"
	token, err := MintToken("auth0|abc123", "jordan@example.com", "")
	require.NoError(t, err)

	config.AppConfig.AuthTokenSecret = "a-different-secret"
	_, err = ParseBearerToken(token)
	assert.Error(t, err)
}

func TestParseBearerTokenRejectsGarbage(t *testing.T) {
	config.AppConfig.AuthTokenSecret = "test-secret"
	_, err := ParseBearerToken("not-a-token")
	assert.Error(t, err)
}
