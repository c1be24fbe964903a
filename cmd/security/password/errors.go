package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPINRequired   = errors.New("pin required")
	ErrPINTooShort   = errors.New("pin too short")
	ErrPINTooLong    = errors.New("pin too long")
	ErrPINNotNumeric = errors.New("pin must contain digits only")
	ErrInvalidHash   = errors.New("invalid pin hash")
	ErrUnknownAlgo   = errors.New("unknown hash algorithm")
)
