package reminder

import (
	"errors"
	"fmt"
)

// Kind classifies why a line was rejected.
type Kind int

const (
	EmptyInput Kind = iota + 1
	MissingTime
	MissingNote
	BadDateFormat
	BadTimeFormat
	InvalidCalendarDateTime
	PastDateTime
)

func (k Kind) String() string {
	switch k {
	case EmptyInput:
		return "empty_input"
	case MissingTime:
		return "missing_time"
	case MissingNote:
		return "missing_note"
	case BadDateFormat:
		return "bad_date_format"
	case BadTimeFormat:
		return "bad_time_format"
	case InvalidCalendarDateTime:
		return "invalid_calendar_datetime"
	case PastDateTime:
		return "past_datetime"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ValidationError is a user-recoverable rejection. Token holds the offending
// input (date token, time token, or "date time") when there is one.
type ValidationError struct {
	Kind  Kind
	Token string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyInput:
		return "The message is empty. Send a reminder like: 01.01.2030 20:00 Do the homework"
	case MissingTime:
		return "Time is missing. Send a reminder like: 01.01.2030 20:00 Do the homework"
	case MissingNote:
		return "What should I remind you about? Add a note after the date and time"
	case BadDateFormat:
		return fmt.Sprintf("Date %q is not in DD.MM.YYYY format", e.Token)
	case BadTimeFormat:
		return fmt.Sprintf("Time %q is not in HH:MM format", e.Token)
	case InvalidCalendarDateTime:
		return fmt.Sprintf("Such a date does not exist: %s", e.Token)
	case PastDateTime:
		return fmt.Sprintf("The date and time %s have already passed", e.Token)
	default:
		return "invalid reminder"
	}
}

// Is matches any *ValidationError with the same Kind, so the Err* sentinels
// work with errors.Is regardless of Token.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrEmptyInput              = &ValidationError{Kind: EmptyInput}
	ErrMissingTime             = &ValidationError{Kind: MissingTime}
	ErrMissingNote             = &ValidationError{Kind: MissingNote}
	ErrBadDateFormat           = &ValidationError{Kind: BadDateFormat}
	ErrBadTimeFormat           = &ValidationError{Kind: BadTimeFormat}
	ErrInvalidCalendarDateTime = &ValidationError{Kind: InvalidCalendarDateTime}
	ErrPastDateTime            = &ValidationError{Kind: PastDateTime}
)

// ErrStoreUnavailable wraps any failure of the task store.
var ErrStoreUnavailable = errors.New("task store unavailable")

// IsValidation reports whether err is a user-recoverable rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
