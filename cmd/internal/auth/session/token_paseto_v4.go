package session

import (
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

const (
	v4PublicPrefix = "v4.public."
	maxTokenLen    = 4096
)

// Subject is who a token is issued to.
type Subject struct {
	UserID string
	Phone  string
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Phone     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
}

// TokenManager signs and verifies session tokens.
type TokenManager interface {
	Issue(sub Subject, tokenID string, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (Claims, error)
	PublicKeyHex() string
}

type pasetoV4PublicManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4PublicManager builds a TokenManager based on PASETO v4.public (Ed25519).
func NewPasetoV4PublicManager(cfg Config) (TokenManager, error) {
	if cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4PublicManager) PublicKeyHex() string {
	return m.public.ExportHex()
}

func (m *pasetoV4PublicManager) Issue(sub Subject, tokenID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	tok.SetJti(tokenID)

	_ = tok.Set("uid", sub.UserID)
	_ = tok.Set("phone", sub.Phone)

	return tok.V4Sign(m.secret, nil), exp, nil
}

func (m *pasetoV4PublicManager) Verify(token string, now time.Time) (Claims, error) {
	if !strings.HasPrefix(token, v4PublicPrefix) || len(token) > maxTokenLen {
		return Claims{}, ErrMalformedToken
	}

	// The expiry rule is evaluated against the caller's clock, not the wall clock.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(notBeforeWithSkew(now, m.clockSkew))
	p.AddRule(notExpiredAt(now))

	parsed, err := p.ParseV4Public(m.public, token, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Claims{}, ErrInvalidToken
	}
	phone, err := parsed.GetString("phone")
	if err != nil || phone == "" {
		return Claims{}, ErrInvalidToken
	}
	jti, err := parsed.GetJti()
	if err != nil || jti == "" {
		return Claims{}, ErrInvalidToken
	}

	iss, _ := parsed.GetIssuer()
	exp, _ := parsed.GetExpiration()
	iat, _ := parsed.GetIssuedAt()

	return Claims{
		UserID:    uid,
		Phone:     phone,
		TokenID:   jti,
		IssuedAt:  iat,
		ExpiresAt: exp,
		Issuer:    iss,
	}, nil
}

// notBeforeWithSkew accepts tokens whose iat/nbf lie up to skew in the future.
func notBeforeWithSkew(now time.Time, skew time.Duration) paseto.Rule {
	limit := now.Add(skew)
	return func(t paseto.Token) error {
		iat, err := t.GetIssuedAt()
		if err != nil {
			return err
		}
		if iat.After(limit) {
			return ErrInvalidToken
		}
		nbf, err := t.GetNotBefore()
		if err != nil {
			return err
		}
		if nbf.After(limit) {
			return ErrInvalidToken
		}
		return nil
	}
}

// notExpiredAt rejects tokens whose exp is at or before now.
func notExpiredAt(now time.Time) paseto.Rule {
	return func(t paseto.Token) error {
		exp, err := t.GetExpiration()
		if err != nil {
			return err
		}
		if !exp.After(now) {
			return ErrInvalidToken
		}
		return nil
	}
}
