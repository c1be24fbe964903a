package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Algorithm names the scheme used for new hashes.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls PIN validation.
type Policy struct {
	MinLength  int
	MaxLength  int
	DigitsOnly bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Algorithm  Algorithm
	Params     Argon2idParams
	BcryptCost int
	Policy     Policy

	// MaxConcurrent caps simultaneous hash computations in a Hasher.
	MaxConcurrent int
}

// DefaultConfig returns Argon2id with interactive-login costs and a 4..12 digit PIN policy.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Algorithm: AlgorithmArgon2id,
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,      // 64 MiB
			Iterations:  3,              // reasonable default for interactive logins
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: 10,
		Policy: Policy{
			MinLength:  4,
			MaxLength:  12,
			DigitsOnly: true,
		},
		MaxConcurrent: 2 * threads,
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - JAPA_PIN_HASH (argon2id|bcrypt)
// - JAPA_PIN_BCRYPT_COST
// - JAPA_PIN_MIN_LEN
// - JAPA_PIN_MAX_LEN
// - JAPA_PIN_DIGITS_ONLY (true/false)
// - JAPA_PIN_HASH_CONCURRENCY
// - JAPA_ARGON2_MEMORY_KIB
// - JAPA_ARGON2_ITERATIONS
// - JAPA_ARGON2_PARALLELISM
// - JAPA_ARGON2_SALT_LEN
// - JAPA_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("JAPA_PIN_HASH"); ok {
		a, err := parseAlgorithm(v)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_HASH: %w", err)
		}
		cfg.Algorithm = a
	}

	if v, ok := os.LookupEnv("JAPA_PIN_BCRYPT_COST"); ok {
		n, err := atoiPositiveInt(v, bcrypt.MinCost, 16)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}

	if v, ok := os.LookupEnv("JAPA_PIN_MIN_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("JAPA_PIN_MAX_LEN"); ok {
		n, err := atoiPositiveInt(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("JAPA_PIN_DIGITS_ONLY"); ok {
		b, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_DIGITS_ONLY: %w", err)
		}
		cfg.Policy.DigitsOnly = b
	}

	if v, ok := os.LookupEnv("JAPA_PIN_HASH_CONCURRENCY"); ok {
		n, err := atoiPositiveInt(v, 1, 256)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_PIN_HASH_CONCURRENCY: %w", err)
		}
		cfg.MaxConcurrent = n
	}

	if v, ok := os.LookupEnv("JAPA_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("JAPA_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = u
	}

	if v, ok := os.LookupEnv("JAPA_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = p
	}

	if v, ok := os.LookupEnv("JAPA_ARGON2_SALT_LEN"); ok {
		u, err := atou32(v, 8, 64)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_SALT_LEN: %w", err)
		}
		cfg.Params.SaltLength = u
	}

	if v, ok := os.LookupEnv("JAPA_ARGON2_KEY_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("JAPA_ARGON2_KEY_LEN: %w", err)
		}
		cfg.Params.KeyLength = u
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"pin policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func parseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmArgon2id:
		return AlgorithmArgon2id, nil
	case AlgorithmBcrypt:
		return AlgorithmBcrypt, nil
	default:
		return "", ErrUnknownAlgo
	}
}

func atoiPositiveInt(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid boolean")
	}
	return b, nil
}
