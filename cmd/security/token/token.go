package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the token HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "JAPA_TOKEN_HMAC_KEY"

	// MinHMACKeyBytes is the minimum accepted HMAC key size in production mode.
	MinHMACKeyBytes = 32
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// HMACEnabled reports whether the env key is present (non-empty after trim).
func HMACEnabled() bool {
	return strings.TrimSpace(os.Getenv(HMACEnvKey)) != ""
}

// Digester turns bearer tokens into storage digests.
// A nil key selects SHA-256; otherwise HMAC-SHA256 is used.
type Digester struct {
	key []byte
}

// NewDigester returns a Digester for key. The key is copied.
func NewDigester(key []byte) Digester {
	if len(key) == 0 {
		return Digester{}
	}
	return Digester{key: append([]byte(nil), key...)}
}

// DigesterFromEnv builds a Digester from JAPA_TOKEN_HMAC_KEY.
// When requireHMAC is set the key must exist and be at least MinHMACKeyBytes long.
func DigesterFromEnv(requireHMAC bool) (Digester, error) {
	if !requireHMAC {
		return NewDigester([]byte(strings.TrimSpace(os.Getenv(HMACEnvKey)))), nil
	}
	key, err := HMACKeyFromEnv(MinHMACKeyBytes)
	if err != nil {
		return Digester{}, err
	}
	return NewDigester(key), nil
}

// Keyed reports whether d runs in HMAC mode.
func (d Digester) Keyed() bool { return len(d.key) > 0 }

// Digest returns the 64-char hex digest of tok.
func (d Digester) Digest(tok string) string {
	if len(d.key) == 0 {
		return HashSHA256Hex(tok)
	}
	return HashHMACSHA256Hex(tok, d.key)
}

// Matches reports whether tok hashes to digest. Timing does not depend on where they differ.
func (d Digester) Matches(tok, digest string) bool {
	return EqualHex64(d.Digest(tok), digest)
}

// EqualHex64 compares two 64-char hex strings in constant time.
// Any other length is rejected up front so the comparison itself stays fixed-size.
func EqualHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
