package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", 1*time.Hour, 7*24*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, 1*time.Hour, tg.accessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, tg.refreshTokenExpiry)
}

func TestTokenGenerator_GenerateTokens(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", 1*time.Hour, 7*24*time.Hour)

	t.Run("success", func(t *testing.T) {
		accessToken, refreshToken, err := tg.GenerateTokens(123, 2)
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, accessToken, refreshToken)
	})

	t.Run("round trip preserves userID and role", func(t *testing.T) {
		accessToken, _, err := tg.GenerateTokens(42, 3)
		require.NoError(t, err)

		userID, role, err := tg.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 42, userID)
		assert.Equal(t, 3, role)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", 1*time.Hour, 7*24*time.Hour)

	t.Run("rejects malformed token", func(t *testing.T) {
		_, _, err := tg.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewTokenGenerator("different-secret", 1*time.Hour, 7*24*time.Hour)
		accessToken, _, err := other.GenerateTokens(1, 1)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("rejects refresh token used as access token", func(t *testing.T) {
		_, refreshToken, err := tg.GenerateTokens(1, 1)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(refreshToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an access token")
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", -1*time.Minute, 7*24*time.Hour)
		accessToken, _, err := expired.GenerateTokens(1, 1)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})
}

func TestTokenGenerator_ValidateRefreshToken(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", 1*time.Hour, 7*24*time.Hour)

	t.Run("success", func(t *testing.T) {
		_, refreshToken, err := tg.GenerateTokens(1, 1)
		require.NoError(t, err)

		assert.NoError(t, tg.ValidateRefreshToken(refreshToken))
	})

	t.Run("rejects access token used as refresh token", func(t *testing.T) {
		accessToken, _, err := tg.GenerateTokens(1, 1)
		require.NoError(t, err)

		err = tg.ValidateRefreshToken(accessToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not a refresh token")
	})
}
