package password

import "unicode/utf8"

// Validate checks the PIN policy. It does not mutate input.
func (c Config) Validate(pin string) error {
	if pin == "" {
		return ErrPINRequired
	}

	n := utf8.RuneCountInString(pin)
	if n < c.Policy.MinLength {
		return ErrPINTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPINTooLong
	}

	if c.Policy.DigitsOnly && !allASCIIDigits(pin) {
		return ErrPINNotNumeric
	}
	return nil
}

// allASCIIDigits rejects non-ASCII digit runes such as Devanagari numerals,
// which would otherwise hash to a different credential than the keypad sends.
func allASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
