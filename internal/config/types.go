package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the on-disk configuration (JSON, or YAML by file extension).
//
// Example:
//
//	{
//	  "telegram":  { "token": "123:abc", "poll_timeout": "10s" },
//	  "logging":   { "level": "info", "console": true },
//	  "scheduler": { "spec": "0 * * * * *", "timezone": "Europe/Moscow" },
//	  "storage":   { "driver": "sqlite", "path": "./data/remindbot.db" }
//	}
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   StorageConfig   `json:"storage"`
	Pprof     PprofConfig     `json:"pprof"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
	// SendRatePerSec paces every outbound message. 0 means 25.
	SendRatePerSec int `json:"send_rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram mirrors log lines at or above MinLevel into an operator chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SchedulerConfig controls the reminder poller.
//
// Enabled is a pointer so an omitted key means enabled.
type SchedulerConfig struct {
	Enabled  *bool  `json:"enabled,omitempty"`
	Spec     string `json:"spec,omitempty"`     // default "0 * * * * *"
	Timezone string `json:"timezone,omitempty"` // IANA name; default local
}

func (s SchedulerConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// StorageConfig selects the task store.
type StorageConfig struct {
	Driver      string `json:"driver"` // "sqlite" (default) | "file"
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PprofConfig enables the debug HTTP server (pprof + /debug/status).
// Binding off loopback requires Token.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default 127.0.0.1:6060
	Token   string `json:"token,omitempty"`
}

const (
	DefaultStoragePath = "./data/remindbot.db"
	DefaultPollTimeout = "10s"
)

// Validate checks fields that do not need other packages to interpret.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if c.Telegram.SendRatePerSec < 0 {
		errs = append(errs, errors.New("telegram.send_rate_per_sec must be >= 0"))
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "sqlite", "sqlite3", "file":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}
	if lt := c.Logging.Telegram; lt.Enabled && lt.ChatID == 0 {
		errs = append(errs, errors.New("logging.telegram.chat_id is required when enabled"))
	}
	return errors.Join(errs...)
}
