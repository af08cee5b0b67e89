package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPasswordAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Fatalf("expected password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected password check to fail")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestPasswordByteLimitBoundary(t *testing.T) {
	exact := strings.Repeat("a", MaxPasswordBytes)
	hash, err := HashPassword(exact)
	if err != nil {
		t.Fatalf("72-byte password should hash, got: %v", err)
	}
	if !CheckPassword(exact, hash) {
		t.Fatalf("72-byte password should verify")
	}

	over := strings.Repeat("a", MaxPasswordBytes+1)
	if _, err := HashPassword(over); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("73-byte password should fail with ErrPasswordTooLong, got: %v", err)
	}
}

func TestValidatePasswordEmpty(t *testing.T) {
	if err := ValidatePassword(""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("empty password should fail, got: %v", err)
	}
}
