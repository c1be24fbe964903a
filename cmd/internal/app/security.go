package app

import (
	"errors"

	"japa/cmd/security/token"
)

// ValidateSecurityConfig enforces the token digest policy at startup.
// It fails instead of silently falling back to an unkeyed digest.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	d, err := token.DigesterFromEnv(true)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: JAPA_REQUIRE_TOKEN_HMAC=true but JAPA_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: JAPA_REQUIRE_TOKEN_HMAC=true but JAPA_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !d.Keyed() {
		return errors.New("security policy: JAPA_REQUIRE_TOKEN_HMAC=true but the token digester is not in HMAC mode")
	}
	return nil
}
