package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3creta")
	require.NoError(t, err)
	assert.NotEqual(t, "s3creta", hash)

	assert.True(t, VerifyPassword("s3creta", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestTokenIssueAndVerify(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	tok, err := ti.Issue("admin@mspbs.gov.py", "ADMIN")
	require.NoError(t, err)

	claims, err := ti.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin@mspbs.gov.py", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestTokenVerify_RejectsWrongSecretAndExpired(t *testing.T) {
	ti := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	tok, err := ti.Issue("u@example.com", "HOSPITAL_USER")
	require.NoError(t, err)

	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret-a", -time.Minute)
	tok, err = expired.Issue("u@example.com", "HOSPITAL_USER")
	require.NoError(t, err)
	_, err = ti.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRecoveryToken_UniqueAndURLSafe(t *testing.T) {
	a, err := NewRecoveryToken()
	require.NoError(t, err)
	b, err := NewRecoveryToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
