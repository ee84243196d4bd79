package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrMissingToken      = errors.New("jwt: missing token")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	// ErrForbidden is returned when a valid identity lacks the required role.
	ErrForbidden = errors.New("jwt: forbidden")
)
