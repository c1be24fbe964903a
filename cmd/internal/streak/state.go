package streak

import "japa/cmd/internal/calendar"

// State is a user's persisted streak. A zero LastCounted means no day has
// been counted yet.
type State struct {
	UserID      string
	Current     int
	Longest     int
	LastCounted calendar.Date
}

// Same reports whether s and o hold identical streak values.
func (s State) Same(o State) bool {
	return s.UserID == o.UserID &&
		s.Current == o.Current &&
		s.Longest == o.Longest &&
		s.LastCounted.Equal(o.LastCounted)
}

// ComputeUpdate returns the state after an entry on occurredOn, and whether it
// differs from prior. prior is nil when the user has no state yet.
//
// Rules, by the distance from the last counted day:
//   - no counted day yet: current and longest become 1
//   - same day: unchanged
//   - next day: current grows by one
//   - two or more days later: current restarts at 1
//   - earlier day (backdated): unchanged
//
// A client east of UTC may already be on the next day, so occurredOn up to
// calendar.MaxLeadDays past today counts. Anything later is ignored; the
// ledger refuses to record it.
// Longest always ends at least as large as current.
func ComputeUpdate(prior *State, userID string, occurredOn, today calendar.Date) (State, bool) {
	var cur State
	if prior != nil {
		cur = *prior
	}
	cur.UserID = userID

	if occurredOn.IsZero() || occurredOn.After(today.AddDays(calendar.MaxLeadDays)) {
		return cur, false
	}

	next := cur
	switch {
	case cur.LastCounted.IsZero():
		next.Current = 1
	case occurredOn.Equal(cur.LastCounted):
		return cur, false
	case occurredOn.Before(cur.LastCounted):
		return cur, false
	case occurredOn.DaysSince(cur.LastCounted) == 1:
		next.Current = cur.Current + 1
	default:
		next.Current = 1
	}

	next.LastCounted = occurredOn
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next, true
}
