package authapi

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"JAPA_AUTH_TRUST_PROXY", "JAPA_AUTH_MAX_BODY_BYTES", "JAPA_AUTH_LOGIN_RATE", "JAPA_AUTH_LOGIN_BURST", "JAPA_AUTH_LIMITER_IDLE_TTL"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfigFromEnv()
	if cfg.TrustProxy || cfg.MaxBodyBytes != 64<<10 || cfg.LoginRate != 0.2 || cfg.LoginBurst != 10 || cfg.LimiterIdleTTL != 15*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_OverridesAndFallbacks(t *testing.T) {
	t.Setenv("JAPA_AUTH_TRUST_PROXY", "true")
	t.Setenv("JAPA_AUTH_MAX_BODY_BYTES", "2048")
	t.Setenv("JAPA_AUTH_LOGIN_RATE", "nope")
	t.Setenv("JAPA_AUTH_LOGIN_BURST", "-3")
	t.Setenv("JAPA_AUTH_LIMITER_IDLE_TTL", "1m")

	cfg := LoadConfigFromEnv()
	if !cfg.TrustProxy || cfg.MaxBodyBytes != 2048 || cfg.LimiterIdleTTL != time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LoginRate != 0.2 || cfg.LoginBurst != 10 {
		t.Fatalf("invalid values must fall back to defaults: %+v", cfg)
	}
}
