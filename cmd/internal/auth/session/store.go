package session

import (
	"context"
	"time"
)

// Row is the single persisted session of a user.
type Row struct {
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"token_id"`
	TokenHash string    `json:"token_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store abstracts persistence for session rows.
//
// Put replaces the user's row as one atomic write: a concurrent Get observes
// either the whole old row or the whole new one. Concurrent Puts for the same
// user resolve last-write-wins.
type Store interface {
	Put(ctx context.Context, row Row) error

	// Get returns ErrSessionNotFound when the user has no row.
	Get(ctx context.Context, userID string) (Row, error)
}
