/*
Package auth provides credential handling: bcrypt password hashing, JWT
access tokens, and one-shot password recovery tokens.

The HTTP layer consumes this package through small functions rather than a
middleware framework; token verification lives in api middleware.
*/
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// NewRecoveryToken returns a URL-safe random token for password recovery.
// Single use, 24h expiry enforced by the caller against the stored copy.
func NewRecoveryToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("recovery token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
