package app

import (
	"context"
	"errors"
	"strings"

	"remindbot/internal/config"
	"remindbot/internal/notifier"
	"remindbot/internal/observability/pprof"
	"remindbot/internal/poller"
	"remindbot/internal/storage"
	"remindbot/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) storage.Config {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" {
		driver = "sqlite"
	}
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		path = config.DefaultStoragePath
	}
	return storage.Config{Driver: driver, Path: path, BusyTimeout: sc.BusyTimeoutDuration()}
}

func mapLogConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File:    logx.FileConfig{Enabled: lc.File.Enabled, Path: lc.File.Path},
		Telegram: logx.TelegramConfig{
			Enabled:    lc.Telegram.Enabled,
			ChatID:     lc.Telegram.ChatID,
			MinLevel:   lc.Telegram.MinLevel,
			RatePerSec: lc.Telegram.RatePerSec,
		},
	}
}

func mapPollerConfig(cfg *config.Config) poller.Config {
	return poller.Config{
		Enabled:  cfg.Scheduler.IsEnabled(),
		Spec:     strings.TrimSpace(cfg.Scheduler.Spec),
		Timezone: strings.TrimSpace(cfg.Scheduler.Timezone),
	}
}

func mapNotifierConfig(cfg *config.Config) notifier.Config {
	return notifier.Config{RatePerSec: cfg.Telegram.SendRatePerSec}
}

func mapPprofConfig(cfg *config.Config) pprof.Config {
	return pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr, Token: cfg.Pprof.Token}
}

// validateReload rejects configs that live components cannot apply.
func validateReload(_ context.Context, cfg *config.Config) error {
	return errors.Join(
		poller.ValidateConfig(mapPollerConfig(cfg)),
		pprof.Validate(mapPprofConfig(cfg)),
	)
}
