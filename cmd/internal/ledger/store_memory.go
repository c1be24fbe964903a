package ledger

import (
	"context"
	"sort"
	"sync"

	"japa/cmd/internal/calendar"
)

// MemoryStore keeps entries in process, for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]Entry)}
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.byUser[e.UserID] = append(s.byUser[e.UserID], e)
	s.mu.Unlock()
	return nil
}

// Summary implements Store.
func (s *MemoryStore) Summary(ctx context.Context, userID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	perDay := make(map[calendar.Date]int64)
	var sum Summary
	for _, e := range s.byUser[userID] {
		sum.TotalRounds += int64(e.Rounds)
		perDay[e.OccurredOn] += int64(e.Rounds)
	}

	sum.Daily = make([]DayTotal, 0, len(perDay))
	for d, r := range perDay {
		sum.Daily = append(sum.Daily, DayTotal{Date: d, Rounds: r})
	}
	sort.Slice(sum.Daily, func(i, j int) bool {
		return sum.Daily[i].Date.After(sum.Daily[j].Date)
	})
	return sum, nil
}

// Totals implements Store.
func (s *MemoryStore) Totals(ctx context.Context) ([]UserTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserTotal, 0, len(s.byUser))
	for uid, entries := range s.byUser {
		var total int64
		for _, e := range entries {
			total += int64(e.Rounds)
		}
		out = append(out, UserTotal{UserID: uid, TotalRounds: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Entries returns a copy of userID's entries in insertion order.
func (s *MemoryStore) Entries(userID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.byUser[userID]...)
}
