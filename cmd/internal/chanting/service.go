// Package chanting records chant entries and keeps each user's streak in step.
package chanting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"japa/cmd/internal/calendar"
	"japa/cmd/internal/ledger"
	"japa/cmd/internal/metrics"
	"japa/cmd/internal/streak"
)

// AddInput is one authenticated submission. OccurredOn nil means today (UTC).
type AddInput struct {
	UserID     string
	Rounds     int
	OccurredOn *calendar.Date
}

// AddResult is the recorded entry and the streak after it.
type AddResult struct {
	Entry  ledger.Entry
	Streak streak.State
}

// Summary is a user's totals plus current streak.
type Summary struct {
	ledger.Summary
	Streak streak.State
}

// Service appends entries and applies them to the streak.
type Service struct {
	ledger  *ledger.Ledger
	streaks *streak.Updater
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewService wires a ledger to a streak updater. m may be nil.
func NewService(log *slog.Logger, l *ledger.Ledger, u *streak.Updater, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		ledger:  l,
		streaks: u,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Add records the entry, then updates the streak from its occurred_on.
//
// Validation failures wrap ledger.ErrInvalidInput. If the streak update fails
// the entry stays recorded and the error is returned.
func (s *Service) Add(ctx context.Context, in AddInput) (AddResult, error) {
	now := s.now()

	entry, err := s.ledger.Append(ctx, ledger.AppendInput{
		UserID:     in.UserID,
		Rounds:     in.Rounds,
		OccurredOn: in.OccurredOn,
		Now:        now,
	})
	if err != nil {
		return AddResult{}, err
	}
	s.metrics.EntryRecorded(entry.Rounds)

	st, err := s.streaks.Apply(ctx, in.UserID, entry.OccurredOn, now)
	if err != nil {
		if errors.Is(err, streak.ErrConflict) {
			s.log.Error("chant.streak.conflict", "user_id", in.UserID, "entry_id", entry.ID)
		}
		return AddResult{}, fmt.Errorf("chanting: apply streak for entry %s: %w", entry.ID, err)
	}

	return AddResult{Entry: entry, Streak: st}, nil
}

// Summary returns totals, per-day rounds and the stored streak for userID.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	sum, err := s.ledger.Summary(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	st, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Summary: sum, Streak: st}, nil
}
