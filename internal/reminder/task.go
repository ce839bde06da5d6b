package reminder

import (
	"cmp"
	"fmt"
	"time"
)

// Date is a calendar day without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ClockOf returns the time of day of t in t's location, dropping sub-second precision.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock{Hour: h, Minute: m, Second: s}
}

func (d Date) Compare(o Date) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// String renders the ISO form, e.g. 2024-03-01.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (c Clock) Compare(o Clock) int {
	if r := cmp.Compare(c.Hour, o.Hour); r != 0 {
		return r
	}
	if r := cmp.Compare(c.Minute, o.Minute); r != 0 {
		return r
	}
	return cmp.Compare(c.Second, o.Second)
}

// TruncateMinute drops the seconds.
func (c Clock) TruncateMinute() Clock {
	return Clock{Hour: c.Hour, Minute: c.Minute}
}

// String renders HH:MM, or HH:MM:SS when seconds are set.
func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// At combines d and c into an instant in loc.
func At(d Date, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// Task is a scheduled reminder (a "notification task").
type Task struct {
	ID          int64
	ChatID      int64
	MessageText string
	Date        Date
	Time        Clock
}

// Equal compares by ID only.
func (t Task) Equal(o Task) bool { return t.ID == o.ID }

// String renders "<date> <time> <messageText>", the line users receive.
func (t Task) String() string {
	return t.Date.String() + " " + t.Time.String() + " " + t.MessageText
}

// compareAt orders t's (date, time) against (d, c): date first, then time.
func (t Task) compareAt(d Date, c Clock) int {
	if r := t.Date.Compare(d); r != 0 {
		return r
	}
	return t.Time.Compare(c)
}
