// Package calendar provides a day-granularity date pinned to UTC.
//
// All streak and ledger arithmetic happens on Date values, never on
// timestamps, so residual time-of-day can not leak into comparisons.
package calendar

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Layout is the canonical wire format (ISO 8601 calendar date).
const Layout = "2006-01-02"

// MaxLeadDays is how far past canonical today an entry may be dated.
// No zone is more than one calendar day ahead of UTC.
const MaxLeadDays = 1

// ErrInvalidDate is returned when a string is neither a calendar date nor an RFC 3339 timestamp.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day in UTC. The zero value is not a valid date.
type Date struct {
	t time.Time
}

// FromTime returns the UTC calendar day containing t.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// New builds a Date from its components. Out-of-range values are normalized like time.Date.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the canonical current day for now.
func Today(now time.Time) Date { return FromTime(now) }

// Latest returns the last day an entry may carry when recorded at now.
func Latest(now time.Time) Date { return Today(now).AddDays(MaxLeadDays) }

// Parse accepts "YYYY-MM-DD" or an RFC 3339 timestamp, which is first converted to UTC.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.ParseInLocation(Layout, s, time.UTC); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FromTime(t), nil
	}
	return Date{}, ErrInvalidDate
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// DaysSince returns the number of whole days from o to d (negative if d is earlier).
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// MarshalJSON encodes d as "YYYY-MM-DD", or null for the zero Date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the same inputs as Parse. null leaves d as the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
