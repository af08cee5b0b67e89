package store

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func newTestSessionStore(t *testing.T, ttl time.Duration, revoker TokenRevoker) *JWTSessionStore {
	t.Helper()
	s, err := NewJWTHS256SessionStore("test-secret", "HS256", ttl, revoker, JWTOptions{Leeway: time.Second})
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	return s
}

func TestSessionStoreConfigErrors(t *testing.T) {
	if _, err := NewJWTHS256SessionStore("", "HS256", 0, nil, JWTOptions{}); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("missing secret should fail, got: %v", err)
	}
	if _, err := NewJWTHS256SessionStore("secret", "RS256", 0, nil, JWTOptions{}); !errors.Is(err, ErrAlgorithmNotSupported) {
		t.Fatalf("unsupported algorithm should fail, got: %v", err)
	}
	if _, err := NewJWTHS256SessionStore("secret", "hs256", 0, nil, JWTOptions{}); err != nil {
		t.Fatalf("algorithm name should be case-insensitive, got: %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestSessionStore(t, time.Minute, nil)
	token, err := s.NewSession("reader@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	email, ok, err := s.GetEmailByToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if !ok || email != "reader@example.com" {
		t.Fatalf("expected subject email, got %q ok=%v", email, ok)
	}
}

func TestSessionRejectsTamperedAndForeignTokens(t *testing.T) {
	s := newTestSessionStore(t, time.Minute, nil)
	token, err := s.NewSession("reader@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(token + "x"); ok {
		t.Fatalf("tampered token must not validate")
	}
	if _, ok, _ := s.GetEmailByToken("not-a-jwt"); ok {
		t.Fatalf("malformed token must not validate")
	}

	// Token signed with a different secret.
	other := newTestSessionStore(t, time.Minute, nil)
	other.secret = []byte("other-secret")
	foreign, err := other.NewSession("reader@example.com")
	if err != nil {
		t.Fatalf("new foreign session: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(foreign); ok {
		t.Fatalf("token with wrong signature must not validate")
	}
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	s := newTestSessionStore(t, time.Minute, nil)
	past := time.Now().UTC().Add(-time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "reader@example.com",
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(expired); ok {
		t.Fatalf("expired token must not validate")
	}
}

func TestSessionRejectsMissingSubject(t *testing.T) {
	s := newTestSessionStore(t, time.Minute, nil)
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(token); ok {
		t.Fatalf("token without subject must not validate")
	}
}

func TestDeleteSessionRevokesToken(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	s := newTestSessionStore(t, time.Minute, revoker)
	token, err := s.NewSession("reader@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(token); !ok {
		t.Fatalf("fresh token should validate")
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(token); ok {
		t.Fatalf("revoked token must not validate")
	}
}
