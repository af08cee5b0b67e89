package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultSessionTTL = 30 * time.Minute
	defaultJWTIssuer  = "bookdesk"
)

var defaultJWTLeeway = 30 * time.Second

// ErrAlgorithmNotSupported is a startup-time configuration error: the token
// scheme is single-secret HS256 only.
var ErrAlgorithmNotSupported = errors.New("jwt algorithm not supported, expected HS256")

// ErrSecretRequired is a startup-time configuration error.
var ErrSecretRequired = errors.New("jwt signing secret is required")

// JWTOptions configures JWT claim behavior.
type JWTOptions struct {
	Issuer string
	Leeway time.Duration
}

// JWTSessionStore issues and validates HS256 access tokens whose subject is
// the account email. Validation is stateless apart from the optional revoker.
type JWTSessionStore struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	leeway  time.Duration
	revoker TokenRevoker
}

// NewJWTHS256SessionStore builds the session store from a shared secret.
// The algorithm name is taken from configuration and rejected unless HS256,
// so a misconfigured deployment fails at startup rather than signing tokens
// with an unexpected scheme.
func NewJWTHS256SessionStore(secret, algorithm string, ttl time.Duration, revoker TokenRevoker, opts JWTOptions) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	if !strings.EqualFold(strings.TrimSpace(algorithm), jwt.SigningMethodHS256.Alg()) {
		return nil, fmt.Errorf("%w, got %q", ErrAlgorithmNotSupported, algorithm)
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		issuer = defaultJWTIssuer
	}
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = defaultJWTLeeway
	}
	return &JWTSessionStore{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  issuer,
		leeway:  leeway,
		revoker: revoker,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *JWTSessionStore) TTL() time.Duration {
	return s.ttl
}

// NewSession issues a token for the given email.
func (s *JWTSessionStore) NewSession(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GetEmailByToken validates the token and returns the subject email.
// Invalid, expired, malformed, and revoked tokens all report ok=false.
func (s *JWTSessionStore) GetEmailByToken(token string) (string, bool, error) {
	claims, ok := s.parse(token)
	if !ok {
		return "", false, nil
	}
	email := strings.TrimSpace(claims.Subject)
	if email == "" {
		return "", false, nil
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(token)
		if err != nil {
			return "", false, err
		}
		if revoked {
			return "", false, nil
		}
	}
	return email, true, nil
}

// DeleteSession revokes the token for its remaining lifetime.
func (s *JWTSessionStore) DeleteSession(token string) error {
	if s.revoker == nil {
		return nil
	}
	claims, ok := s.parse(token)
	if !ok || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time) + s.leeway
	if remaining <= 0 {
		return nil
	}
	return s.revoker.Revoke(token, remaining)
}

func (s *JWTSessionStore) parse(token string) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}
