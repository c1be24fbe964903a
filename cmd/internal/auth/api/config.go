package authapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// LoginRate is the sustained number of register/login attempts per
	// second allowed from one client IP; LoginBurst is the bucket size.
	LoginRate  float64
	LoginBurst int

	// LimiterIdleTTL drops per-IP limiters that have been idle this long.
	LimiterIdleTTL time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:     envBool("JAPA_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("JAPA_AUTH_MAX_BODY_BYTES", 64<<10),
		LoginRate:      envFloat("JAPA_AUTH_LOGIN_RATE", 0.2),
		LoginBurst:     envInt("JAPA_AUTH_LOGIN_BURST", 10),
		LimiterIdleTTL: envDuration("JAPA_AUTH_LIMITER_IDLE_TTL", 15*time.Minute),
	}
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
