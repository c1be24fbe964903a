package streak

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"japa/cmd/internal/calendar"

	"github.com/stretchr/testify/require"
)

var noon = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func TestUpdater_PersistsTransitions(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	u := NewUpdater(store)
	ctx := context.Background()
	d := calendar.Today(noon)

	st, err := u.Apply(ctx, "u1", d.AddDays(-1), noon)
	require.NoError(t, err)
	require.Equal(t, 1, st.Current)

	st, err = u.Apply(ctx, "u1", d, noon)
	require.NoError(t, err)
	require.Equal(t, 2, st.Current)

	stored, found, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, st, stored)

	// Backdated: returned and stored state stay byte-for-byte the same.
	back, err := u.Apply(ctx, "u1", d.AddDays(-9), noon)
	require.NoError(t, err)
	require.Equal(t, stored, back)

	after, _, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, stored, after)
}

func TestUpdater_FutureEntryForNewUserStoresNothing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	u := NewUpdater(store)

	st, err := u.Apply(context.Background(), "u1", calendar.Today(noon).AddDays(2), noon)
	require.NoError(t, err)
	require.Equal(t, State{UserID: "u1"}, st)

	_, found, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestUpdater_ConcurrentSameDayConverges(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	u := NewUpdater(store)
	ctx := context.Background()
	d := calendar.Today(noon)

	_, err := u.Apply(ctx, "u1", d.AddDays(-1), noon)
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	results := make([]State, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = u.Apply(ctx, "u1", d, noon)
		}(i)
	}
	wg.Wait()

	want := State{UserID: "u1", Current: 2, Longest: 2, LastCounted: d}
	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, want, results[i])
	}

	final, _, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, want, final)
	require.Zero(t, u.locks.size())
}

// racingStore loses the first `losses` swaps, simulating another instance
// writing between our read and our write.
type racingStore struct {
	*MemoryStore
	losses int32
	calls  atomic.Int32
}

func (s *racingStore) CompareAndSwap(ctx context.Context, prev *State, next State) (bool, error) {
	if s.calls.Add(1) <= s.losses {
		return false, nil
	}
	return s.MemoryStore.CompareAndSwap(ctx, prev, next)
}

func TestUpdater_RetriesLostSwaps(t *testing.T) {
	t.Parallel()

	store := &racingStore{MemoryStore: NewMemoryStore(), losses: 2}
	var conflicts atomic.Int32
	u := NewUpdater(store, WithConflictHook(func() { conflicts.Add(1) }))

	st, err := u.Apply(context.Background(), "u1", calendar.Today(noon), noon)
	require.NoError(t, err)
	require.Equal(t, 1, st.Current)
	require.Equal(t, int32(2), conflicts.Load())
	require.Equal(t, int32(3), store.calls.Load())
}

func TestUpdater_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	store := &racingStore{MemoryStore: NewMemoryStore(), losses: 100}
	u := NewUpdater(store, WithMaxAttempts(3))

	_, err := u.Apply(context.Background(), "u1", calendar.Today(noon), noon)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, int32(3), store.calls.Load())
}

type brokenStore struct{ *MemoryStore }

func (brokenStore) Get(context.Context, string) (State, bool, error) {
	return State{}, false, errors.New("connection reset")
}

func TestUpdater_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	u := NewUpdater(brokenStore{NewMemoryStore()})
	_, err := u.Apply(context.Background(), "u1", calendar.Today(noon), noon)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_CompareAndSwapPreconditions(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	a := State{UserID: "u1", Current: 1, Longest: 1, LastCounted: calendar.New(2024, 1, 1)}
	b := State{UserID: "u1", Current: 2, Longest: 2, LastCounted: calendar.New(2024, 1, 2)}

	ok, err := s.CompareAndSwap(ctx, nil, a)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, nil, b)
	require.NoError(t, err)
	require.False(t, ok, "insert must not overwrite")

	ok, err = s.CompareAndSwap(ctx, &b, b)
	require.NoError(t, err)
	require.False(t, ok, "stale prev must lose")

	ok, err = s.CompareAndSwap(ctx, &a, b)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []State{b}, list)
}
