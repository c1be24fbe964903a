package streak

import (
	"context"
	"errors"
)

// ErrConflict is returned when the compare-and-swap keeps losing after the
// configured number of attempts.
var ErrConflict = errors.New("streak: concurrent update conflict")

// Store persists streak states.
type Store interface {
	// Get returns the user's state; found is false when none exists.
	Get(ctx context.Context, userID string) (st State, found bool, err error)

	// CompareAndSwap writes next only if the stored state still equals prev.
	// A nil prev means "only if no state exists yet". swapped is false when
	// the precondition did not hold.
	CompareAndSwap(ctx context.Context, prev *State, next State) (swapped bool, err error)

	// List returns every stored state ordered by user id.
	List(ctx context.Context) ([]State, error)
}
