package ledger

import "context"

// Store persists ledger entries.
//
// Implementations must never modify or remove an inserted entry.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Summary(ctx context.Context, userID string) (Summary, error)
	// Totals returns all-time rounds per user, for users with at least one entry.
	Totals(ctx context.Context) ([]UserTotal, error)
}
