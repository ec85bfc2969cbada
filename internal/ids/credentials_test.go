package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct-horse", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
}

func TestIssueAndParseAccessToken(t *testing.T) {
	secret := []byte("access-secret")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueAccessToken(secret, "user1", "OP001", "operator", time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseAccessToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "OP001", claims.OperatorID)
	assert.Equal(t, "operator", claims.Role)
}

func TestParseAccessToken_ExpiredIsRejected(t *testing.T) {
	secret := []byte("access-secret")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueAccessToken(secret, "user1", "OP001", "operator", -time.Minute, now)
	require.NoError(t, err)

	_, err = ParseAccessToken(secret, token)
	require.Error(t, err)
}

func TestParseAccessToken_WrongSecretRejected(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueAccessToken([]byte("secret-a"), "user1", "OP001", "operator", time.Hour, now)
	require.NoError(t, err)

	_, err = ParseAccessToken([]byte("secret-b"), token)
	require.Error(t, err)
}

func TestIssueAndParseRefreshToken(t *testing.T) {
	secret := []byte("refresh-secret")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := IssueRefreshToken(secret, "user1", "jti-1", 24*time.Hour, now)
	require.NoError(t, err)

	userID, jti, err := ParseRefreshToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user1", userID)
	assert.Equal(t, "jti-1", jti)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("123456", "123456"))
	assert.False(t, ConstantTimeEqual("123456", "654321"))
	assert.False(t, ConstantTimeEqual("123456", "1234567"))
}
