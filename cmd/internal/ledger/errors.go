package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the kind shared by every validation failure in this package.
	ErrInvalidInput = errors.New("invalid_input")

	// ErrInvalidRounds means rounds was missing, not an integer, or not positive.
	ErrInvalidRounds = fmt.Errorf("%w: rounds must be a positive integer", ErrInvalidInput)

	// ErrInvalidDate means occurred_on could not be parsed as a calendar date.
	ErrInvalidDate = fmt.Errorf("%w: occurred_on must be YYYY-MM-DD or RFC3339", ErrInvalidInput)

	// ErrFutureDate means occurred_on is later than tomorrow (UTC).
	ErrFutureDate = fmt.Errorf("%w: occurred_on is in the future", ErrInvalidInput)
)
