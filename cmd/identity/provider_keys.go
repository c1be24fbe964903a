package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownKey is returned when a token names a key id the source does not hold.
var ErrUnknownKey = errors.New("unknown signing key")

// KeySource resolves a token's "kid" header to a verification key.
type KeySource interface {
	Key(ctx context.Context, kid string) (any, error)
}

// KeyFetchError reports that verification keys could not be loaded at all.
// It is an internal failure, not a bad token.
type KeyFetchError struct {
	Err error
}

func (e KeyFetchError) Error() string { return "identity: fetch provider keys: " + e.Err.Error() }

func (e KeyFetchError) Unwrap() error { return e.Err }

// StaticKeys is a fixed kid -> public key set. The "" kid acts as a fallback.
type StaticKeys map[string]any

// Key implements KeySource.
func (s StaticKeys) Key(_ context.Context, kid string) (any, error) {
	if k, ok := s[kid]; ok {
		return k, nil
	}
	if k, ok := s[""]; ok {
		return k, nil
	}
	return nil, ErrUnknownKey
}

// DefaultMinRefresh is the shortest gap between refetches triggered by an
// unknown kid while the cached set is still within its TTL.
const DefaultMinRefresh = time.Minute

// RemoteCerts loads x509 certificates published as a JSON object of
// kid -> PEM certificate, the format Google-style token issuers serve.
// The set is cached for TTL. An unknown kid on a fresh set triggers at most
// one refetch per DefaultMinRefresh, and concurrent fetches share one request.
type RemoteCerts struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	now        func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	fetched     time.Time
	lastAttempt time.Time
}

// NewRemoteCerts returns a RemoteCerts for url. A nil client uses a 5s timeout client.
func NewRemoteCerts(url string, ttl time.Duration, client *http.Client) *RemoteCerts {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RemoteCerts{url: url, ttl: ttl, minRefresh: DefaultMinRefresh, client: client, now: time.Now}
}

// Key implements KeySource.
func (r *RemoteCerts) Key(ctx context.Context, kid string) (any, error) {
	r.mu.Lock()
	now := r.now()
	fresh := r.keys != nil && now.Sub(r.fetched) <= r.ttl
	if fresh {
		if k, ok := r.keys[kid]; ok {
			r.mu.Unlock()
			return k, nil
		}
		if now.Sub(r.lastAttempt) < r.minRefresh {
			r.mu.Unlock()
			return nil, ErrUnknownKey
		}
	}
	r.mu.Unlock()

	// Unknown kid on a fresh set may mean the provider rotated keys.
	err := r.refresh(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if fresh {
			// The cached set still verifies known kids; this one is just unknown.
			return nil, ErrUnknownKey
		}
		return nil, KeyFetchError{Err: err}
	}
	if k, ok := r.keys[kid]; ok {
		return k, nil
	}
	return nil, ErrUnknownKey
}

// refresh collapses concurrent callers onto one fetch. The fetch itself is
// detached from any single caller's cancellation and bounded by the client timeout.
func (r *RemoteCerts) refresh(ctx context.Context) error {
	ch := r.group.DoChan("certs", func() (any, error) {
		return nil, r.fetch(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RemoteCerts) fetch(ctx context.Context) error {
	r.mu.Lock()
	r.lastAttempt = r.now()
	r.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return fmt.Errorf("decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, certPEM := range raw {
		pub, err := parseRSACertificate(certPEM)
		if err != nil {
			return fmt.Errorf("kid %q: %w", kid, err)
		}
		keys[kid] = pub
	}

	r.mu.Lock()
	r.keys = keys
	r.fetched = r.now()
	r.mu.Unlock()
	return nil
}

func parseRSACertificate(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return pub, nil
}
