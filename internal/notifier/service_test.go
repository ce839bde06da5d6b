package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"remindbot/internal/eventbus"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

type fakeAdapter struct {
	mu   sync.Mutex
	sent []kit.ChatTarget
	text []string
	err  error
}

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	f.sent = append(f.sent, to)
	f.text = append(f.text, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func TestSendDelivers(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(Config{}, ad, logx.Nop(), bus)
	require.NoError(t, s.Send(context.Background(), 42, "2030-01-01 20:00 homework"))

	require.Equal(t, []kit.ChatTarget{{ChatID: 42}}, ad.sent)
	require.Equal(t, []string{"2030-01-01 20:00 homework"}, ad.text)

	e := <-events
	require.Equal(t, eventbus.TypeReminderSent, e.Type)
	require.Equal(t, int64(42), e.Data.(SendEvent).ChatID)

	hist := s.Snapshot()
	require.Len(t, hist, 1)
	require.Empty(t, hist[0].Err)
}

func TestSendWrapsGatewayErrors(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{err: errors.New("telegram: 502")}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(Config{}, ad, logx.Nop(), bus)
	err := s.Send(context.Background(), 1, "hi")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
	require.Contains(t, err.Error(), "502")
	require.Equal(t, eventbus.TypeSendFailed, (<-events).Type)

	require.ErrorIs(t, s.Send(context.Background(), 1, ""), ErrEmptyText)
}

func TestSendHonoursCancellation(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := New(Config{RatePerSec: 1}, ad, logx.Nop(), nil)

	require.NoError(t, s.Send(context.Background(), 1, "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, s.Send(ctx, 1, "second"))
	require.Len(t, ad.text, 1)
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()
	s := New(Config{RatePerSec: 1000, HistorySize: 2}, &fakeAdapter{}, logx.Nop(), nil)
	for _, txt := range []string{"a", "b", "c"} {
		require.NoError(t, s.Send(context.Background(), 1, txt))
	}
	hist := s.Snapshot()
	require.Len(t, hist, 2)
	require.Equal(t, "b", hist[0].Text)
	require.Equal(t, "c", hist[1].Text)
}
