package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booknest/bookshelf-api/config"
)

func TestCreateAndVerifyToken(t *testing.T) {
	config.Env = config.Environment{
		Auth0Audience: "https://api.bookshelf.dev",
		JWTSecretKey:  "test-secret-key",
	}

	token, err := CreateToken("auth0|alice", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, VerifyToken(token))
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	config.Env = config.Environment{
		Auth0Audience: "https://api.bookshelf.dev",
		JWTSecretKey:  "test-secret-key",
	}

	token, err := CreateToken("auth0|alice", "alice@example.com", "Alice")
	require.NoError(t, err)

	assert.Error(t, VerifyToken(token+"x"))

	config.Env.JWTSecretKey = "another-secret"
	assert.Error(t, VerifyToken(token))
}

func TestCreateTokenRequiresSecret(t *testing.T) {
	config.Env = config.Environment{Auth0Audience: "https://api.bookshelf.dev"}

	_, err := CreateToken("auth0|alice", "alice@example.com", "Alice")
	assert.Error(t, err)
}
