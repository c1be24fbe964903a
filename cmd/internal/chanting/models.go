package chanting

import (
	"encoding/json"
	"time"

	"japa/cmd/internal/calendar"
	"japa/cmd/internal/leaderboard"
	"japa/cmd/internal/ledger"
)

type addRequest struct {
	Rounds     json.RawMessage `json:"rounds"`
	OccurredOn string          `json:"occurred_on"`
	// ChantDate is accepted for older clients.
	ChantDate string `json:"chant_date"`
}

type streakResponse struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

type addResponse struct {
	EntryID    string         `json:"entry_id"`
	Rounds     int            `json:"rounds"`
	OccurredOn calendar.Date  `json:"occurred_on"`
	RecordedAt time.Time      `json:"recorded_at"`
	Streak     streakResponse `json:"streak"`
}

type summaryStreak struct {
	Current         int           `json:"current"`
	Longest         int           `json:"longest"`
	LastCountedDate calendar.Date `json:"last_counted_date"`
}

type summaryResponse struct {
	TotalRounds int64             `json:"total_rounds"`
	Daily       []ledger.DayTotal `json:"daily"`
	Streak      summaryStreak     `json:"streak"`
}

type leaderboardResponse struct {
	Data []leaderboard.Row `json:"data"`
}
