package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   Command
		wantOK bool
	}{
		{in: "/start", want: Command{Kind: CommandStart}, wantOK: true},
		{in: "  /start  ", want: Command{Kind: CommandStart}, wantOK: true},
		{in: "/start@remind_bot", want: Command{Kind: CommandStart}, wantOK: true},
		{in: "/my_notes_list", want: Command{Kind: CommandListAll}, wantOK: true},
		{in: "/future_tasks", want: Command{Kind: CommandListFuture}, wantOK: true},
		{in: "/delete_past_tasks@x", want: Command{Kind: CommandDeletePast}, wantOK: true},
		{in: "/start now", want: Command{Kind: CommandCreateTask, Text: "/start now"}, wantOK: true},
		{in: "/help", want: Command{Kind: CommandCreateTask, Text: "/help"}, wantOK: true},
		{in: "01.01.2030 20:00 homework", want: Command{Kind: CommandCreateTask, Text: "01.01.2030 20:00 homework"}, wantOK: true},
		{in: "", wantOK: false},
		{in: " \n\t", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := Decode(tt.in)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMenuListsKeywords(t *testing.T) {
	t.Parallel()
	menu := Menu()
	require.Len(t, menu, 4)
	for _, c := range menu {
		cmd, ok := Decode("/" + c.Command)
		require.True(t, ok)
		require.NotEqual(t, CommandCreateTask, cmd.Kind, c.Command)
		require.NotEmpty(t, c.Description)
	}
}

func TestGreetingUsesFirstName(t *testing.T) {
	t.Parallel()
	require.Contains(t, greeting("Ann"), "Hello, Ann!")
	require.Contains(t, greeting(""), "01.01.2022 20:00")
}
