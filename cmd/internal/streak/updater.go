package streak

import (
	"context"
	"fmt"
	"sync"
	"time"

	"japa/cmd/internal/calendar"
)

// DefaultMaxAttempts bounds the compare-and-swap loop.
const DefaultMaxAttempts = 5

// Option configures an Updater.
type Option func(*Updater)

// WithMaxAttempts sets how many compare-and-swap attempts Apply makes.
func WithMaxAttempts(n int) Option {
	return func(u *Updater) {
		if n > 0 {
			u.maxAttempts = n
		}
	}
}

// WithConflictHook registers fn to run after every lost compare-and-swap.
func WithConflictHook(fn func()) Option {
	return func(u *Updater) { u.onConflict = fn }
}

// Updater applies ComputeUpdate to stored state, one writer per user at a time.
type Updater struct {
	store       Store
	maxAttempts int
	onConflict  func()
	locks       keyedMutex
}

// NewUpdater returns an Updater over store.
func NewUpdater(store Store, opts ...Option) *Updater {
	u := &Updater{store: store, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// Apply records an entry on occurredOn for userID and returns the resulting
// state. If the entry does not change the streak, the stored state (or the
// zero state for a new user) is returned as is.
//
// The in-process lock covers concurrent requests on this instance; the
// compare-and-swap covers other instances sharing the store.
func (u *Updater) Apply(ctx context.Context, userID string, occurredOn calendar.Date, now time.Time) (State, error) {
	if userID == "" {
		return State{}, fmt.Errorf("streak: empty user id")
	}
	today := calendar.Today(now)

	unlock := u.locks.lock(userID)
	defer unlock()

	for attempt := 0; attempt < u.maxAttempts; attempt++ {
		cur, found, err := u.store.Get(ctx, userID)
		if err != nil {
			return State{}, err
		}

		var prior *State
		if found {
			prior = &cur
		}

		next, changed := ComputeUpdate(prior, userID, occurredOn, today)
		if !changed {
			return next, nil
		}

		swapped, err := u.store.CompareAndSwap(ctx, prior, next)
		if err != nil {
			return State{}, err
		}
		if swapped {
			return next, nil
		}
		if u.onConflict != nil {
			u.onConflict()
		}
		if err := ctx.Err(); err != nil {
			return State{}, err
		}
	}
	return State{}, ErrConflict
}

// Get returns the stored state for userID, or the zero state.
func (u *Updater) Get(ctx context.Context, userID string) (State, error) {
	st, _, err := u.store.Get(ctx, userID)
	if err != nil {
		return State{}, err
	}
	st.UserID = userID
	return st, nil
}

// keyedMutex hands out one mutex per key and frees it when the last holder leaves.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
