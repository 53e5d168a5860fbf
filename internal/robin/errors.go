package robin

import "errors"

// Protocol-level errors for the Robin session state machine and dispatcher.
var (
	// ErrMalformedRequest is returned when a request line cannot be tokenized
	// (e.g. an unterminated quoted argument).
	ErrMalformedRequest = errors.New("robin: malformed request")

	// ErrEmptyRequest is returned for a blank line.
	ErrEmptyRequest = errors.New("robin: empty request")
)

// Reply status codes, the closed set from spec.md §4.4. Positive statuses
// encode line counts only and are never named constants here.
const (
	StatusGenericFailure        = -1
	StatusNotAuthenticated      = -2
	StatusAlreadyAuthenticated  = -3
	StatusInvalidArguments      = -4
	StatusUnknownCommand        = -5
)
