package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishFanout(t *testing.T) {
	t.Parallel()
	b := New()
	a, unsubA := b.Subscribe(2)
	c, unsubC := b.Subscribe(2)
	defer unsubC()

	Publish(b, TypeReminderSent, 7)

	ea := <-a
	ec := <-c
	require.Equal(t, TypeReminderSent, ea.Type)
	require.Equal(t, 7, ec.Data)
	require.False(t, ea.Time.IsZero())

	unsubA()
	unsubA()
	_, open := <-a
	require.False(t, open)

	// Publishing after an unsubscribe must not panic.
	Publish(b, TypePollerTick, nil)
	require.Equal(t, TypePollerTick, (<-c).Type)
}

func TestPublishDropsWhenFull(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	Publish(b, "one", nil)
	Publish(b, "two", nil)

	require.Equal(t, "one", (<-ch).Type)
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %q", e.Type)
	default:
	}
}

func TestPublishNilBus(t *testing.T) {
	t.Parallel()
	require.NotPanics(t, func() { Publish(nil, "x", nil) })
}
