package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/laguz/internal/apperr"
)

var testSecret = []byte("test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestPasswordHashAndCompare(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
