package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProviderConfig describes the external identity provider whose ID tokens are accepted.
type ProviderConfig struct {
	// Issuer is matched against "iss". Empty disables the check.
	Issuer string
	// Audience is matched against "aud". Empty disables the check.
	Audience string
	// Leeway tolerates clock drift on exp/nbf/iat.
	Leeway time.Duration
	// Methods lists accepted signing algorithms. Defaults to RS256.
	Methods []string
}

type providerClaims struct {
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// ProviderAuthenticator verifies provider-signed ID tokens and maps their
// phone_number claim to an existing User.
//
// A valid token for a phone that never registered yields ErrNotFound; users
// are not provisioned implicitly.
type ProviderAuthenticator struct {
	cfg   ProviderConfig
	keys  KeySource
	users Store
	now   func() time.Time
}

// NewProviderAuthenticator builds a ProviderAuthenticator.
func NewProviderAuthenticator(cfg ProviderConfig, keys KeySource, users Store) *ProviderAuthenticator {
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{jwt.SigningMethodRS256.Alg()}
	}
	return &ProviderAuthenticator{cfg: cfg, keys: keys, users: users, now: time.Now}
}

// Authenticate implements Authenticator for provider ID tokens.
func (p *ProviderAuthenticator) Authenticate(ctx context.Context, cred Credential) (User, error) {
	const op = "identity.ProviderAuthenticate"

	raw := strings.TrimSpace(cred.IDToken)
	if raw == "" {
		return User{}, invalid(op, "id_token is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(p.cfg.Methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(p.cfg.Leeway),
		jwt.WithTimeFunc(p.now),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	var claims providerClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return p.keys.Key(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return User{}, err
		}
		var fetchErr KeyFetchError
		if errors.As(err, &fetchErr) {
			return User{}, fetchErr
		}
		return User{}, OpError{Op: op, Kind: ErrUnauthorized, Msg: "invalid provider token"}
	}

	phone, ok := NormalizePhone(claims.PhoneNumber)
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrUnauthorized, Msg: "token has no phone_number"}
	}

	return p.users.GetUserByPhone(ctx, phone)
}
