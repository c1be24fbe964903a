package session

import (
	"context"
	"strings"
	"time"

	"japa/cmd/identity/ids"
	"japa/cmd/security/token"
)

// Issued is the result of a login.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Identity is the authenticated caller, handed explicitly to downstream operations.
type Identity struct {
	UserID string
	Phone  string
}

// Manager issues and validates single-per-user sessions.
type Manager struct {
	cfg    Config
	tokens TokenManager
	store  Store
	digest token.Digester
}

// NewManager constructs a Manager.
func NewManager(cfg Config, store Store, tokens TokenManager, digest token.Digester) *Manager {
	return &Manager{cfg: cfg, store: store, tokens: tokens, digest: digest}
}

// Issue signs a new token for sub and overwrites the user's stored session.
// Any token issued earlier for the same user stops validating once this returns.
func (m *Manager) Issue(ctx context.Context, now time.Time, sub Subject) (Issued, error) {
	tokenID, err := ids.NewULID(now)
	if err != nil {
		return Issued{}, err
	}

	tok, exp, err := m.tokens.Issue(sub, tokenID, now)
	if err != nil {
		return Issued{}, err
	}

	row := Row{
		UserID:    sub.UserID,
		TokenID:   tokenID,
		TokenHash: m.digest.Digest(tok),
		IssuedAt:  now,
		ExpiresAt: exp,
	}
	if err := m.store.Put(ctx, row); err != nil {
		return Issued{}, err
	}

	return Issued{Token: tok, ExpiresAt: exp}, nil
}

// Validate authenticates a presented token.
//
// Order matters: signature and embedded expiry first (ErrInvalidToken), then
// the stored row (ErrSessionNotFound when missing or superseded), then the
// stored expiry (ErrSessionExpired).
func (m *Manager) Validate(ctx context.Context, tok string, now time.Time) (Identity, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := m.tokens.Verify(tok, now)
	if err != nil {
		return Identity{}, err
	}

	row, err := m.store.Get(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}

	if row.TokenID != claims.TokenID || !m.digest.Matches(tok, row.TokenHash) {
		return Identity{}, ErrSessionNotFound
	}
	if !row.ExpiresAt.After(now) {
		return Identity{}, ErrSessionExpired
	}

	return Identity{UserID: claims.UserID, Phone: claims.Phone}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.cfg.TTL }
