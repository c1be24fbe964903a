package session

import (
	"os"
	"time"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// TTL is the lifetime of a session token and its stored row.
	TTL time.Duration

	// ClockSkew is the tolerance applied when checking iat/nbf during verification.
	ClockSkew time.Duration

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key
	// used to sign PASETO v4.public tokens.
	PasetoV4SecretKeyHex string
}

// DefaultConfig returns defaults: a 1440 minute session and 30s skew.
func DefaultConfig() Config {
	return Config{
		Issuer:    "japa",
		TTL:       1440 * time.Minute,
		ClockSkew: 30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - JAPA_PASETO_V4_SECRET_KEY_HEX
//
// Optional (durations must be valid Go duration strings):
//   - JAPA_AUTH_ISSUER
//   - JAPA_SESSION_TTL
//   - JAPA_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("JAPA_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("JAPA_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("JAPA_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.PasetoV4SecretKeyHex = os.Getenv("JAPA_PASETO_V4_SECRET_KEY_HEX")
	if cfg.PasetoV4SecretKeyHex == "" {
		return Config{}, ErrConfig
	}

	// Skew must stay well below the session lifetime or every token verifies as expired.
	if cfg.ClockSkew >= cfg.TTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
