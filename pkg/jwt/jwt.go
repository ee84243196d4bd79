package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by access tokens.
type Claims struct {
	gojwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// RecipientID is the identity notifications are addressed to: the user_id
// claim, or the subject when user_id is absent.
func (c *Claims) RecipientID() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Config for the token service.
type Config struct {
	SigningKey string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"auditoria"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AdminRole  string        `env:"JWT_ADMIN_ROLE" envDefault:"admin"`
}

// Service mints and verifies HS256 tokens.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: signingKey, ttl: 24 * time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromConfig builds a Service from Config.
func NewFromConfig(cfg Config) (*Service, error) {
	return New([]byte(cfg.SigningKey), WithIssuer(cfg.Issuer), WithTTL(cfg.TTL))
}

// Issue signs a token for userID with the given role. Registered claims
// (issuer, iat, exp, jti) are filled in by the service.
func (s *Service) Issue(userID, email, role string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, algorithm, issuer and time claims of raw.
func (s *Service) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithLeeway(5 * time.Second),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(raw, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.RecipientID() == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
