package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "telegram":  {"token": "123:abc", "poll_timeout": "15s"},
  "logging":   {"level": "debug", "console": true},
  "scheduler": {"spec": "*/30 * * * * *", "timezone": "Europe/Moscow"},
  "storage":   {"driver": "file", "path": "./data/tasks"}
}`

const sampleYAML = `
telegram:
  token: "123:abc"
  poll_timeout: 15s
logging:
  level: debug
  console: true
scheduler:
  enabled: false
  timezone: UTC
storage:
  driver: sqlite
  path: ./data/remindbot.db
  busy_timeout: 2s
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.json", sampleJSON))
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Same(t, cfg, m.Get())

	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, 15*time.Second, cfg.Telegram.PollTimeoutDuration())
	require.True(t, cfg.Scheduler.IsEnabled())
	require.Equal(t, "Europe/Moscow", cfg.Scheduler.Timezone)
	require.Equal(t, "file", cfg.Storage.Driver)
	require.Equal(t, 5*time.Second, cfg.Storage.BusyTimeoutDuration())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	cfg, err := NewManager(writeFile(t, "config.yaml", sampleYAML)).Load()
	require.NoError(t, err)
	require.False(t, cfg.Scheduler.IsEnabled())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 2*time.Second, cfg.Storage.BusyTimeoutDuration())
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"unknown field": `{"telegram": {"token": "x", "bogus": 1}}`,
		"trailing data": `{"telegram": {"token": "x"}} {}`,
		"bad json":      `{"telegram": `,
	}
	for name, body := range tests {
		_, err := Decode("config.json", []byte(body))
		require.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Telegram: TelegramConfig{PollTimeout: "soon"},
		Storage:  StorageConfig{Driver: "redis"},
		Logging:  LoggingConfig{Telegram: LoggingTelegram{Enabled: true}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"telegram.token", "telegram.poll_timeout", "storage.driver", "logging.telegram.chat_id"} {
		require.ErrorContains(t, err, want)
	}

	cfg = &Config{Telegram: TelegramConfig{Token: "t"}}
	require.NoError(t, cfg.Validate())
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("x", "")
	require.NoError(t, err)
	require.Zero(t, d)

	_, err = ParseDurationField("x", "-1s")
	require.Error(t, err)

	d, err = ParseDurationOrDefault("x", "0s", time.Minute)
	require.NoError(t, err)
	require.Equal(t, time.Minute, d)
}

func TestReloadPublishesOnlyChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := writeFile(t, "config.json", sampleJSON)
	m := NewManager(path)
	_, err := m.Load()
	require.NoError(t, err)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ok, err := m.Reload(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`{"telegram": {"token": "123:abc"}, "scheduler": {"timezone": "UTC"}}`), 0o600))
	ok, err = m.Reload(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	got := <-ch
	require.Equal(t, "UTC", got.Scheduler.Timezone)
	require.Same(t, got, m.Get())

	m.SetValidator(func(context.Context, *Config) error { return errors.New("nope") })
	require.NoError(t, os.WriteFile(path, []byte(`{"telegram": {"token": "123:abc"}}`), 0o600))
	ok, err = m.Reload(ctx)
	require.ErrorContains(t, err, "nope")
	require.False(t, ok)
	require.Equal(t, "UTC", m.Get().Scheduler.Timezone)
}

func TestSummarizeConfigChangeHidesToken(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Telegram: TelegramConfig{Token: "secret-1"}}
	newCfg := &Config{
		Telegram:  TelegramConfig{Token: "secret-2"},
		Scheduler: SchedulerConfig{Timezone: "UTC"},
	}
	changed, fields := SummarizeConfigChange(oldCfg, newCfg)
	require.Equal(t, []string{"telegram", "scheduler"}, changed)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ev := logger.Info()
	for _, f := range fields {
		f(ev)
	}
	ev.Send()
	require.Contains(t, buf.String(), `"telegram.token_changed":true`)
	require.NotContains(t, buf.String(), "secret")
	require.Equal(t, []string{"telegram.token"}, RestartRequired(oldCfg, newCfg))
}
