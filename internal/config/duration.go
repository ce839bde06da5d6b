package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses a Go duration string. Empty means 0.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// PollTimeoutDuration returns telegram.poll_timeout, 10s when unset.
func (c TelegramConfig) PollTimeoutDuration() time.Duration {
	d, err := ParseDurationOrDefault("telegram.poll_timeout", c.PollTimeout, 10*time.Second)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// BusyTimeoutDuration returns storage.busy_timeout, 5s when unset.
func (c StorageConfig) BusyTimeoutDuration() time.Duration {
	d, err := ParseDurationOrDefault("storage.busy_timeout", c.BusyTimeout, 5*time.Second)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
