package ledger

import (
	"context"
	"fmt"
	"time"

	"japa/cmd/identity/ids"
	"japa/cmd/internal/calendar"
)

// AppendInput is one submission. OccurredOn nil means today (UTC).
type AppendInput struct {
	UserID     string
	Rounds     int
	OccurredOn *calendar.Date
	Now        time.Time
}

// Ledger is the only write path for entries.
type Ledger struct {
	store Store
}

// New returns a Ledger over store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append validates and records one entry.
//
// A supplied OccurredOn is kept verbatim, so past days can be backfilled.
// Days after calendar.Latest(now) are rejected with ErrFutureDate.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (Entry, error) {
	if in.UserID == "" {
		return Entry{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.Rounds <= 0 || in.Rounds > MaxRounds {
		return Entry{}, ErrInvalidRounds
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	day := calendar.Today(now)
	if in.OccurredOn != nil {
		if in.OccurredOn.IsZero() {
			return Entry{}, ErrInvalidDate
		}
		if in.OccurredOn.After(calendar.Latest(now)) {
			return Entry{}, ErrFutureDate
		}
		day = *in.OccurredOn
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:         id,
		UserID:     in.UserID,
		Rounds:     in.Rounds,
		OccurredOn: day,
		RecordedAt: now,
	}
	if err := l.store.Insert(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("ledger: insert: %w", err)
	}
	return e, nil
}

// Summary returns total and per-day rounds for userID.
func (l *Ledger) Summary(ctx context.Context, userID string) (Summary, error) {
	if userID == "" {
		return Summary{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return l.store.Summary(ctx, userID)
}

// Totals returns all-time rounds per user.
func (l *Ledger) Totals(ctx context.Context) ([]UserTotal, error) {
	return l.store.Totals(ctx)
}
