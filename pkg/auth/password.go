package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's hard input limit. Longer passwords are
// rejected up front instead of being silently truncated.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
var ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)

// ErrPasswordRequired is returned for an empty password.
var ErrPasswordRequired = errors.New("password required")

// ValidatePassword checks that the password is usable with bcrypt.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword hashes the password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword validates a password against its bcrypt hash.
// Mismatches collapse to false and are never surfaced as errors.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
