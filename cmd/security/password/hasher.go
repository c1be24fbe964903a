package password

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Hasher runs Config.Hash and Config.Verify with a cap on concurrent computations.
//
// Hashing is CPU and memory heavy; without a cap a burst of logins can starve
// every other request on the host. Callers wait for a slot or for ctx.
type Hasher struct {
	cfg Config
	sem *semaphore.Weighted
}

// NewHasher builds a Hasher. MaxConcurrent <= 0 falls back to 1.
func NewHasher(cfg Config) *Hasher {
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = 1
	}
	return &Hasher{cfg: cfg, sem: semaphore.NewWeighted(int64(n))}
}

// Config returns the configuration the Hasher was built with.
func (h *Hasher) Config() Config { return h.cfg }

// Validate checks pin against the policy without hashing.
func (h *Hasher) Validate(pin string) error { return h.cfg.Validate(pin) }

// Hash computes an encoded hash for pin.
func (h *Hasher) Hash(ctx context.Context, pin string) (string, error) {
	if err := h.cfg.Validate(pin); err != nil {
		return "", err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	return h.cfg.Hash(pin)
}

// Verify compares pin to encodedHash.
func (h *Hasher) Verify(ctx context.Context, encodedHash, pin string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return h.cfg.Verify(encodedHash, pin)
}
