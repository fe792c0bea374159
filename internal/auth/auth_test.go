package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/recruit-portal/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "recruit-portal", time.Hour)
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return fixed }

	token, claims, err := tm.Generate(models.User{ID: "user-1"}, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "client-1", claims.ClientID)
	assert.Equal(t, fixed.Add(time.Hour), claims.ExpiresAt)

	parsed, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "client-1", parsed.ClientID)
	assert.True(t, parsed.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("test-secret", "recruit-portal", time.Hour)
	token, _, err := tm.Generate(models.User{ID: "user-1"}, "client-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", "recruit-portal", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager("test-secret", "someone-else", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("test-secret", "recruit-portal", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing client", func(t *testing.T) {
		bare, _, err := tm.Generate(models.User{ID: "user-1"}, "")
		require.NoError(t, err)
		_, err = tm.Parse(bare)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashers(t *testing.T) {
	bc, err := NewPasswordHasher("bcrypt")
	require.NoError(t, err)
	bc = BcryptHasher{Cost: bcrypt.MinCost}
	stored, err := bc.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored)
	assert.True(t, bc.Matches(stored, "correct horse"))
	assert.False(t, bc.Matches(stored, "wrong horse"))

	plain, err := NewPasswordHasher("PLAINTEXT")
	require.NoError(t, err)
	stored, err = plain.Hash("correct horse")
	require.NoError(t, err)
	assert.Equal(t, "correct horse", stored)
	assert.True(t, plain.Matches(stored, "correct horse"))
	assert.False(t, plain.Matches(stored, "correct hors"))

	def, err := NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, def)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}
