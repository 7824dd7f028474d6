package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("fresh-produce")
	require.NoError(t, err)
	assert.NotEqual(t, "fresh-produce", hash)
	assert.True(t, CheckPassword("fresh-produce", hash))
	assert.False(t, CheckPassword("stale-produce", hash))
}

func TestHashPassword_ShortPassword(t *testing.T) {
	for _, pw := range []string{"", "a", "1234567"} {
		hash, err := HashPassword(pw)
		assert.ErrorIs(t, err, ErrPasswordTooShort)
		assert.Empty(t, hash)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("testpassword123")
	require.NoError(t, err)
	h2, err := HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	assert.False(t, CheckPassword("password", "not-a-hash"))
}

func TestAdminCredentials_Verify(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	creds := NewAdminCredentials("Admin@Example.com", hash)

	assert.NoError(t, creds.Verify("admin@example.com", "s3cret-pass"))
	assert.NoError(t, creds.Verify("  ADMIN@example.com ", "s3cret-pass"))
	assert.ErrorIs(t, creds.Verify("admin@example.com", "wrong-pass"), ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Verify("someone@example.com", "s3cret-pass"), ErrInvalidCredentials)
}

func TestAdminCredentials_Disabled(t *testing.T) {
	creds := NewAdminCredentials("admin@example.com", "")
	assert.ErrorIs(t, creds.Verify("admin@example.com", "anything"), ErrLoginDisabled)
}
