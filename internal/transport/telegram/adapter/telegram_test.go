package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{name: "short", in: "hello", limit: 10, want: []string{"hello"}},
		{name: "hard cut", in: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "newline boundary", in: "aaaa\nbbbb\ncc", limit: 8, want: []string{"aaaa", "bbbb\ncc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, splitTelegramText(tt.in, tt.limit))
		})
	}
}

func TestSplitTelegramTextKeepsRunes(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("ж", 9)
	got := splitTelegramText(in, 4)
	require.Equal(t, []string{"жжжж", "жжжж", "ж"}, got)
}

func TestToUpdate(t *testing.T) {
	t.Parallel()

	_, ok := toUpdate(nil)
	require.False(t, ok)

	_, ok = toUpdate(&tele.Message{Chat: &tele.Chat{ID: 1}})
	require.False(t, ok, "messages without text are ignored")

	up, ok := toUpdate(&tele.Message{
		ID:     5,
		Chat:   &tele.Chat{ID: 42},
		Sender: &tele.User{ID: 7, Username: "ann", FirstName: "Ann"},
		Text:   "/start",
	})
	require.True(t, ok)
	require.Equal(t, int64(42), up.Message.ChatID)
	require.Equal(t, "Ann", up.Message.FromFirstName)
	require.Equal(t, "/start", up.Message.Text)
}
