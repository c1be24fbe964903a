package streak

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps streak states in process.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, userID string) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return State{}, false, err
	}
	s.mu.Lock()
	st, ok := s.states[userID]
	s.mu.Unlock()
	return st, ok, nil
}

// CompareAndSwap implements Store.
func (s *MemoryStore) CompareAndSwap(ctx context.Context, prev *State, next State) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.states[next.UserID]
	switch {
	case prev == nil && ok:
		return false, nil
	case prev != nil && (!ok || !cur.Same(*prev)):
		return false, nil
	}
	s.states[next.UserID] = next
	return true, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := make([]State, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
