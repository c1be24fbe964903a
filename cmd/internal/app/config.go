package app

import (
	"strings"
	"time"

	"japa/cmd/internal/dbschema"
	"japa/cmd/internal/leaderboard"
	"japa/cmd/internal/streak"
)

// Session store backends selectable with JAPA_SESSION_BACKEND.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
	SessionBackendMemory   = "memory"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// CORS. Entries are exact origins, "*" or "scheme://host:*".
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	DatabaseURL   string
	DBSchema      string
	DBMaxConns    int32
	DBMinConns    int32
	DBAutoMigrate bool

	// SessionBackend picks where session rows live. Empty means postgres
	// when a database is configured and memory otherwise.
	SessionBackend string
	RedisURL       string
	RedisKeyPrefix string

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// If true, JAPA_TOKEN_HMAC_KEY must be set (>= 32 bytes) and session
	// token digests are HMAC-SHA256.
	RequireTokenHMAC bool

	BeadsPerRound     int
	StreakMaxAttempts int
	ChantMaxBodyBytes int

	// Provider login is enabled only when ProviderCertsURL is set.
	ProviderIssuer   string
	ProviderAudience string
	ProviderCertsURL string
	ProviderCertsTTL time.Duration
	ProviderLeeway   time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("JAPA_HTTP_ADDR", "0.0.0.0:3000"),
		LogLevel:  EnvString("JAPA_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("JAPA_LOG_FORMAT", "json")),

		ReadHeaderTimeout: EnvDuration("JAPA_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("JAPA_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("JAPA_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("JAPA_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("JAPA_HTTP_MAX_HEADER_BYTES", 1<<20),

		CORSAllowedOrigins:   EnvList("JAPA_CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowCredentials: EnvBool("JAPA_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("JAPA_CORS_MAX_AGE_SECONDS", 600),

		DatabaseURL:   EnvString("JAPA_DATABASE_URL", ""),
		DBSchema:      EnvString("JAPA_DB_SCHEMA", dbschema.DefaultSchema),
		DBMaxConns:    EnvInt32("JAPA_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("JAPA_DB_MIN_CONNS", 0),
		DBAutoMigrate: EnvBool("JAPA_DB_AUTO_MIGRATE", false),

		SessionBackend: strings.ToLower(EnvString("JAPA_SESSION_BACKEND", "")),
		RedisURL:       EnvString("JAPA_REDIS_URL", ""),
		RedisKeyPrefix: EnvString("JAPA_REDIS_KEY_PREFIX", ""),

		ReadinessRequireDB: EnvBool("JAPA_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("JAPA_REQUIRE_TOKEN_HMAC", false),

		BeadsPerRound:     EnvInt("JAPA_BEADS_PER_ROUND", leaderboard.DefaultBeadsPerRound),
		StreakMaxAttempts: EnvInt("JAPA_STREAK_MAX_ATTEMPTS", streak.DefaultMaxAttempts),
		ChantMaxBodyBytes: EnvInt("JAPA_CHANT_MAX_BODY_BYTES", 64<<10),

		ProviderIssuer:   EnvString("JAPA_PROVIDER_ISSUER", ""),
		ProviderAudience: EnvString("JAPA_PROVIDER_AUDIENCE", ""),
		ProviderCertsURL: EnvString("JAPA_PROVIDER_CERTS_URL", ""),
		ProviderCertsTTL: EnvDuration("JAPA_PROVIDER_CERTS_TTL", time.Hour),
		ProviderLeeway:   EnvDuration("JAPA_PROVIDER_LEEWAY", 30*time.Second),
	}
}

// sessionBackend resolves the effective session backend.
func (c Config) sessionBackend() string {
	if c.SessionBackend != "" {
		return c.SessionBackend
	}
	if c.DatabaseURL != "" {
		return SessionBackendPostgres
	}
	return SessionBackendMemory
}
