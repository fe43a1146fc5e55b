package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: expired, tampered and
// malformed tokens are indistinguishable to callers at this layer.
var ErrInvalidToken = errors.New("invalid token")

const defaultExpiry = 7 * 24 * time.Hour

// Service issues and verifies the signed bearer tokens that bind a caller
// to an identifier (email for doctors/patients, username for admins). It is
// stateless: verification recomputes the signature, nothing is looked up.
type Service struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithExpiry overrides the default seven-day token lifetime.
func WithExpiry(d time.Duration) Option {
	return func(s *Service) { s.expiry = d }
}

// WithClock injects the time source, for deterministic expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token signing secret must not be empty")
	}
	s := &Service{
		secret: []byte(secret),
		expiry: defaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate issues a token with the identifier as subject, issued now and
// expiring after the configured lifetime.
func (s *Service) Generate(identifier string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   identifier,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks integrity and expiry and returns the bound identifier.
// Every failure mode collapses to ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
