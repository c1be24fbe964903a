package identity

import "strings"

const (
	minPhoneDigits = 6
	maxPhoneDigits = 15 // E.164
)

// NormalizePhone strips common formatting (spaces, dashes, dots, parentheses)
// and keeps an optional leading '+'. It returns ok=false when the remainder is
// not 6..15 ASCII digits.
func NormalizePhone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
			digits++
		case c == '+' && b.Len() == 0:
			b.WriteByte(c)
		case c == ' ' || c == '-' || c == '.' || c == '(' || c == ')':
		default:
			return "", false
		}
	}

	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return "", false
	}
	return b.String(), true
}

// normalizeDisplayName trims the name; blank becomes nil so stored names are preserved.
func normalizeDisplayName(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
