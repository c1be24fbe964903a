package leaderboard

import (
	"context"

	"japa/cmd/identity"
	"japa/cmd/internal/ledger"
	"japa/cmd/internal/streak"
)

// UserLister lists every registered user.
type UserLister interface {
	ListUsers(ctx context.Context) ([]identity.User, error)
}

// TotalsReader returns lifetime rounds per user.
type TotalsReader interface {
	Totals(ctx context.Context) ([]ledger.UserTotal, error)
}

// StreakLister returns every stored streak.
type StreakLister interface {
	List(ctx context.Context) ([]streak.State, error)
}

// JoinSource joins three independent readers in process. It backs the
// leaderboard when the stores are not in one database.
type JoinSource struct {
	Users   UserLister
	Totals  TotalsReader
	Streaks StreakLister
}

// Standings implements Source. Every user appears, with zeros when they have
// no entries or streak yet.
func (s JoinSource) Standings(ctx context.Context) ([]Standing, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.Totals.Totals(ctx)
	if err != nil {
		return nil, err
	}
	streaks, err := s.Streaks.List(ctx)
	if err != nil {
		return nil, err
	}

	rounds := make(map[string]int64, len(totals))
	for _, t := range totals {
		rounds[t.UserID] = t.TotalRounds
	}
	states := make(map[string]streak.State, len(streaks))
	for _, st := range streaks {
		states[st.UserID] = st
	}

	out := make([]Standing, 0, len(users))
	for _, u := range users {
		st := states[u.ID]
		out = append(out, Standing{
			UserID:        u.ID,
			DisplayName:   u.DisplayName,
			Phone:         u.Phone,
			TotalRounds:   rounds[u.ID],
			CurrentStreak: st.Current,
			LongestStreak: st.Longest,
		})
	}
	return out, nil
}
