package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remindbot/internal/bot"
	"remindbot/internal/config"
	kit "remindbot/internal/transport"
)

type fakeGateway struct {
	mu   sync.Mutex
	out  chan<- kit.Update
	menu []kit.BotCommand
	sent chan kit.ChatTarget
	text chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sent: make(chan kit.ChatTarget, 16), text: make(chan string, 16)}
}

func (g *fakeGateway) Start(_ context.Context, out chan<- kit.Update) error {
	g.mu.Lock()
	g.out = out
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) Stop(context.Context) error { return nil }

func (g *fakeGateway) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	g.sent <- to
	g.text <- text
	return kit.MessageRef{ChatID: to.ChatID, MessageID: 1}, nil
}

func (g *fakeGateway) UpdateMenuCommands(_ context.Context, cmds []kit.BotCommand) error {
	g.mu.Lock()
	g.menu = cmds
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) push(chatID int64, text string) {
	g.mu.Lock()
	out := g.out
	g.mu.Unlock()
	out <- kit.Update{Message: &kit.Message{ChatID: chatID, FromID: chatID, Text: text}}
}

func newTestApp(t *testing.T, body string) (*App, *fakeGateway) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	require.NoError(t, err)
	cfg.Storage.Path = filepath.Join(dir, "tasks.db")

	gw := newFakeGateway()
	a, err := build(cfgm, cfg, gw)
	require.NoError(t, err)
	return a, gw
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestAppRoundTrip(t *testing.T) {
	a, gw := newTestApp(t, `{
		"telegram":  {"token": "test"},
		"scheduler": {"enabled": false, "timezone": "UTC"}
	}`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	gw.push(42, "/my_notes_list")
	require.Equal(t, kit.ChatTarget{ChatID: 42}, recv(t, gw.sent))
	require.Equal(t, "Task list is empty", recv(t, gw.text))

	gw.push(42, "01.01.2099 20:00 homework")
	recv(t, gw.sent)
	require.Equal(t, "Reminder saved: 2099-01-01 20:00 homework", recv(t, gw.text))

	n, err := a.reminders.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	st := a.status(ctx).(Status)
	require.Equal(t, 1, st.Tasks)
	require.Equal(t, "UTC", st.Timezone)
	require.False(t, st.Poller.Enabled)
	require.Zero(t, st.Sends.Failed)
	require.Eventually(t, func() bool {
		return a.status(ctx).(Status).Sends.Recent == 2
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.menu) == len(bot.Menu())
	}, 3*time.Second, 10*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx, StopSIGTERM))
	<-a.Done()
}

func TestApplyConfigSwapsTimezone(t *testing.T) {
	a, _ := newTestApp(t, `{"telegram": {"token": "test"}, "scheduler": {"enabled": false, "timezone": "UTC"}}`)
	t.Cleanup(func() {
		_ = a.store.Close()
		_ = a.logs.Close()
	})

	prev := a.cfgm.Get()
	next := *prev
	next.Scheduler.Timezone = "Asia/Tokyo"
	a.applyConfig(context.Background(), prev, &next)

	require.Equal(t, "Asia/Tokyo", a.reminders.Location().String())
	require.Equal(t, "Asia/Tokyo", a.poller.Location().String())
}

func TestMapping(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	sc := mapStorageConfig(cfg)
	require.Equal(t, "sqlite", sc.Driver)
	require.Equal(t, config.DefaultStoragePath, sc.Path)

	cfg.Storage = config.StorageConfig{Driver: " File ", Path: "./x"}
	require.Equal(t, "file", mapStorageConfig(cfg).Driver)

	pc := mapPollerConfig(cfg)
	require.True(t, pc.Enabled)

	off := false
	cfg.Scheduler = config.SchedulerConfig{Enabled: &off, Spec: "@every 30s", Timezone: "Nowhere/Land"}
	require.False(t, mapPollerConfig(cfg).Enabled)
	require.Error(t, validateReload(context.Background(), cfg))

	cfg.Scheduler.Timezone = "UTC"
	require.NoError(t, validateReload(context.Background(), cfg))
}
