package ledger

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"japa/cmd/internal/calendar"
)

// MaxRounds bounds a single entry so it fits the INTEGER column.
const MaxRounds = math.MaxInt32

// Entry is one immutable ledger row.
type Entry struct {
	ID         string
	UserID     string
	Rounds     int
	OccurredOn calendar.Date
	RecordedAt time.Time
}

// DayTotal is the rounds recorded against one calendar day.
type DayTotal struct {
	Date   calendar.Date `json:"date"`
	Rounds int64         `json:"rounds"`
}

// Summary aggregates a user's entries.
type Summary struct {
	TotalRounds int64
	// Daily is ordered by date, newest first.
	Daily []DayTotal
}

// UserTotal is the all-time rounds of one user.
type UserTotal struct {
	UserID      string
	TotalRounds int64
}

// ParseRounds decodes a raw JSON rounds value.
//
// Only JSON integers are accepted: strings, fractions, booleans, null and
// absent values fail with ErrInvalidRounds, as do zero and negatives.
func ParseRounds(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, ErrInvalidRounds
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, ErrInvalidRounds
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, ErrInvalidRounds
	}
	if strings.ContainsAny(num.String(), ".eE") {
		return 0, ErrInvalidRounds
	}

	n, err := num.Int64()
	if err != nil || n <= 0 || n > MaxRounds {
		return 0, ErrInvalidRounds
	}
	return int(n), nil
}

// ParseOccurredOn parses an optional occurred_on value. An empty string means
// "not supplied" and returns nil.
func ParseOccurredOn(s string) (*calendar.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &d, nil
}
