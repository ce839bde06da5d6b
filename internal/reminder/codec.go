package reminder

import (
	"fmt"
	"time"
)

// Layouts used on the wire. Each call parses with its own layout string; there
// is no shared formatter state.
const (
	// InputLayout is what users type: "01.01.2022 20:00".
	InputLayout = "02.01.2006 15:04"
	// DateLayout is the persisted (ISO) date form.
	DateLayout = "2006-01-02"
	// ClockLayout is the persisted time form.
	ClockLayout = "15:04:05"
)

// ParseInput parses "DD.MM.YYYY HH:MM" in loc with calendar validation:
// month 1-12, day within the month (leap years honoured), hour 0-23, minute 0-59.
func ParseInput(dateTok, timeTok string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(InputLayout, dateTok+" "+timeTok, loc)
}

// ParseDate reads a persisted ISO date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseClock reads a persisted time; both HH:MM:SS and HH:MM are accepted.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse("15:04", s)
		if err2 != nil {
			return Clock{}, fmt.Errorf("parse time %q: %w", s, err)
		}
	}
	return ClockOf(t), nil
}

// FormatDate renders d for storage.
func FormatDate(d Date) string { return d.String() }

// FormatClock renders c for storage, always with seconds.
func FormatClock(c Clock) string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}
