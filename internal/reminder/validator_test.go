package reminder_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remindbot/internal/reminder"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2030, 6, 10, 12, 0, 30, 0, loc)

	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "empty", in: "", want: reminder.ErrEmptyInput},
		{name: "blank", in: " \t\n ", want: reminder.ErrEmptyInput},
		{name: "date only", in: "11.06.2030", want: reminder.ErrMissingTime},
		{name: "iso date", in: "2030-06-11 10:00 x", want: reminder.ErrBadDateFormat},
		{name: "short date", in: "1.6.2030 10:00 x", want: reminder.ErrBadDateFormat},
		{name: "words", in: "buy milk tomorrow", want: reminder.ErrBadDateFormat},
		{name: "short time", in: "11.06.2030 9:00 x", want: reminder.ErrBadTimeFormat},
		{name: "dotted time", in: "11.06.2030 10.00 x", want: reminder.ErrBadTimeFormat},
		{name: "no note", in: "11.06.2030 10:00", want: reminder.ErrMissingNote},
		{name: "no note, bad calendar", in: "31.04.2030 10:00", want: reminder.ErrMissingNote},
		{name: "feb 30", in: "30.02.2030 10:00 x", want: reminder.ErrInvalidCalendarDateTime},
		{name: "hour 24", in: "11.06.2030 24:00 x", want: reminder.ErrInvalidCalendarDateTime},
		{name: "minute 60", in: "11.06.2030 10:60 x", want: reminder.ErrInvalidCalendarDateTime},
		{name: "letters in shape", in: "ab.cd.efgh 10:00 x", want: reminder.ErrInvalidCalendarDateTime},
		{name: "yesterday", in: "09.06.2030 23:59 x", want: reminder.ErrPastDateTime},
		{name: "this minute", in: "10.06.2030 12:00 x", want: reminder.ErrPastDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := reminder.Validate(tt.in, now)
			require.ErrorIs(t, err, tt.want)
			require.True(t, reminder.IsValidation(err))
			require.NotEmpty(t, err.Error())
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 2, 28, 23, 59, 0, 0, time.UTC)

	p, err := reminder.Validate("  29.02.2024   00:00  Leap   day  party ", now)
	require.NoError(t, err)
	require.Equal(t, reminder.Date{Year: 2024, Month: time.February, Day: 29}, p.Date)
	require.Equal(t, reminder.Clock{}, p.Time)
	require.Equal(t, "Leap day party", p.Note)

	p, err = reminder.Validate("28.02.2024 23:59 x", now.Add(-time.Second))
	require.NoError(t, err)
	require.Equal(t, reminder.Clock{Hour: 23, Minute: 59}, p.Time)
}

func TestValidateReadsInNowZone(t *testing.T) {
	t.Parallel()
	// 10:30 UTC is 13:30 in UTC+3, so 12:00 there is already past.
	now := time.Date(2030, 1, 1, 10, 30, 0, 0, time.UTC)
	_, err := reminder.Validate("01.01.2030 12:00 x", now)
	require.NoError(t, err)

	_, err = reminder.Validate("01.01.2030 12:00 x", now.In(time.FixedZone("UTC+3", 3*60*60)))
	require.ErrorIs(t, err, reminder.ErrPastDateTime)
}

func TestValidationErrorTokens(t *testing.T) {
	t.Parallel()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := reminder.Validate("1.1.2030 10:00 x", now)
	var ve *reminder.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, reminder.BadDateFormat, ve.Kind)
	require.Equal(t, "1.1.2030", ve.Token)
	require.Contains(t, err.Error(), "1.1.2030")

	require.False(t, errors.Is(err, reminder.ErrBadTimeFormat))
	require.False(t, reminder.IsValidation(reminder.ErrStoreUnavailable))
}
