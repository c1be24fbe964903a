package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session rows in process. Rows are stored by value, so a
// reader never sees a partially updated row.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Row
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.rows[row.UserID] = row
	s.mu.Unlock()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, userID string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	s.mu.RLock()
	row, ok := s.rows[userID]
	s.mu.RUnlock()
	if !ok {
		return Row{}, ErrSessionNotFound
	}
	return row, nil
}
