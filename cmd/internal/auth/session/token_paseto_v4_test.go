package session

import (
	"errors"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func TestPasetoManager_Claims(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	m, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := m.Issue(alice, "01HV00000000000000000000JT", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.Equal(now.Add(cfg.TTL)) {
		t.Fatalf("expiry mismatch: %v", exp)
	}

	claims, err := m.Verify(tok, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != alice.UserID || claims.Phone != alice.Phone {
		t.Fatalf("subject mismatch: %+v", claims)
	}
	if claims.TokenID != "01HV00000000000000000000JT" {
		t.Fatalf("token id mismatch: %q", claims.TokenID)
	}
	if claims.Issuer != "japa" {
		t.Fatalf("issuer mismatch: %q", claims.Issuer)
	}
	if m.PublicKeyHex() == "" {
		t.Fatalf("expected public key hex")
	}
}

func TestPasetoManager_IssuerMismatch(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	m1, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	cfg.Issuer = "someone-else"
	m2, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := m1.Issue(alice, "jti", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m2.Verify(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for issuer mismatch, got %v", err)
	}
}

func TestPasetoManager_FutureIssuedWithinSkew(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	m, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := m.Issue(alice, "jti", now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now); err != nil {
		t.Fatalf("10s ahead is inside the 30s skew, got %v", err)
	}

	tok, _, err = m.Issue(alice, "jti", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken beyond skew, got %v", err)
	}
}

func TestPasetoManager_MissingClaims(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	m, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		t.Fatalf("secret key: %v", err)
	}

	now := time.Now().UTC()
	tok := paseto.NewToken()
	tok.SetIssuer(cfg.Issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(time.Hour))
	_ = tok.Set("uid", alice.UserID)
	// no phone, no jti

	if _, err := m.Verify(tok.V4Sign(secret, nil), now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing claims, got %v", err)
	}
}

func TestNewPasetoManager_BadKey(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.PasetoV4SecretKeyHex = "zz"
	if _, err := NewPasetoV4PublicManager(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad key, got %v", err)
	}
}
