package session

import "errors"

var (
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("missing token")

	// ErrMalformedToken is returned when the token is not a v4.public PASETO at all.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidToken is returned when the signature, issuer or embedded expiry fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrSessionNotFound is returned when no stored session matches the token,
	// including tokens revoked by a newer login.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the stored session expired before the token did.
	ErrSessionExpired = errors.New("session expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
