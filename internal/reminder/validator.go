package reminder

import (
	"strings"
	"time"
)

// Parsed is an accepted reminder line.
type Parsed struct {
	Date Date
	Time Clock
	Note string
}

// Validate turns a raw chat line into a future-dated (date, time, note) triple.
// The location of now is the zone the date and time are read in.
//
// Checks run in a fixed order and the first failure wins: tokens, date shape,
// time shape, note presence, calendar validity, then the past check.
func Validate(raw string, now time.Time) (Parsed, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Parsed{}, &ValidationError{Kind: EmptyInput}
	}
	dateTok := tokens[0]
	if len(tokens) == 1 {
		return Parsed{}, &ValidationError{Kind: MissingTime, Token: dateTok}
	}
	timeTok := tokens[1]
	note := strings.Join(tokens[2:], " ")

	if !hasShape(dateTok, 10, '.', 2, 5) {
		return Parsed{}, &ValidationError{Kind: BadDateFormat, Token: dateTok}
	}
	if !hasShape(timeTok, 5, ':', 2) {
		return Parsed{}, &ValidationError{Kind: BadTimeFormat, Token: timeTok}
	}
	if note == "" {
		return Parsed{}, &ValidationError{Kind: MissingNote}
	}

	at, err := ParseInput(dateTok, timeTok, now.Location())
	if err != nil {
		return Parsed{}, &ValidationError{Kind: InvalidCalendarDateTime, Token: dateTok + " " + timeTok}
	}
	if !at.After(now) {
		return Parsed{}, &ValidationError{Kind: PastDateTime, Token: dateTok + " " + timeTok}
	}

	return Parsed{Date: DateOf(at), Time: ClockOf(at), Note: note}, nil
}

// hasShape checks the byte length and that sep sits at every given offset.
func hasShape(tok string, n int, sep byte, at ...int) bool {
	if len(tok) != n {
		return false
	}
	for _, i := range at {
		if tok[i] != sep {
			return false
		}
	}
	return true
}
