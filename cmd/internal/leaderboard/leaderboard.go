// Package leaderboard ranks users by lifetime beads.
//
// It only reads: totals come from the entry ledger, streaks from the streak
// store, names from the user store.
package leaderboard

import (
	"context"
	"sort"
	"strings"
)

// DefaultBeadsPerRound is the number of beads on one japa mala.
const DefaultBeadsPerRound = 108

// Standing is one user's aggregate before bead conversion.
type Standing struct {
	UserID        string
	DisplayName   *string
	Phone         string
	TotalRounds   int64
	CurrentStreak int
	LongestStreak int
}

// Row is one leaderboard line as served to clients.
type Row struct {
	UserID        string  `json:"user_id"`
	DisplayName   *string `json:"display_name"`
	Phone         string  `json:"phone"`
	TotalRounds   int64   `json:"total_rounds"`
	TotalBeads    int64   `json:"total_beads"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
}

// Source returns standings for every user, in any order.
type Source interface {
	Standings(ctx context.Context) ([]Standing, error)
}

// Board ranks standings.
type Board struct {
	src           Source
	beadsPerRound int64
}

// New returns a Board. A non-positive beadsPerRound uses DefaultBeadsPerRound.
func New(src Source, beadsPerRound int) *Board {
	if beadsPerRound <= 0 {
		beadsPerRound = DefaultBeadsPerRound
	}
	return &Board{src: src, beadsPerRound: int64(beadsPerRound)}
}

// Top returns up to limit rows ordered by beads (highest first), then user id.
// limit <= 0 returns everyone.
func (b *Board) Top(ctx context.Context, limit int) ([]Row, error) {
	standings, err := b.src.Standings(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(standings))
	for _, s := range standings {
		rows = append(rows, Row{
			UserID:        s.UserID,
			DisplayName:   s.DisplayName,
			Phone:         MaskPhone(s.Phone),
			TotalRounds:   s.TotalRounds,
			TotalBeads:    s.TotalRounds * b.beadsPerRound,
			CurrentStreak: s.CurrentStreak,
			LongestStreak: s.LongestStreak,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalBeads != rows[j].TotalBeads {
			return rows[i].TotalBeads > rows[j].TotalBeads
		}
		return rows[i].UserID < rows[j].UserID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// MaskPhone keeps the country prefix and last four digits of a stored phone,
// for example "+15550001234" becomes "+1******1234".
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return strings.Repeat("*", len(phone))
	}
	head := 2
	if !strings.HasPrefix(phone, "+") {
		head = 0
	}
	tail := 4
	return phone[:head] + strings.Repeat("*", len(phone)-head-tail) + phone[len(phone)-tail:]
}
