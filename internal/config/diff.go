package config

import (
	"strings"

	"remindbot/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe fields for
// logging. Tokens are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.Token != nt.Token ||
		strings.TrimSpace(ot.PollTimeout) != strings.TrimSpace(nt.PollTimeout) ||
		ot.SendRatePerSec != nt.SendRatePerSec {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.String("telegram.poll_timeout", strings.TrimSpace(nt.PollTimeout)),
			logx.Int("telegram.send_rate_per_sec", nt.SendRatePerSec),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		nl := newCfg.Logging
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", nl.Level),
			logx.Bool("logging.console", nl.Console),
			logx.Bool("logging.file_enabled", nl.File.Enabled),
			logx.Bool("logging.telegram_enabled", nl.Telegram.Enabled),
		)
	}

	os, ns := oldCfg.Scheduler, newCfg.Scheduler
	if os.IsEnabled() != ns.IsEnabled() ||
		strings.TrimSpace(os.Spec) != strings.TrimSpace(ns.Spec) ||
		strings.TrimSpace(os.Timezone) != strings.TrimSpace(ns.Timezone) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", ns.IsEnabled()),
			logx.String("scheduler.spec", strings.TrimSpace(ns.Spec)),
			logx.String("scheduler.timezone", strings.TrimSpace(ns.Timezone)),
		)
	}

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", newCfg.Storage.Driver),
			logx.String("storage.path", newCfg.Storage.Path),
		)
	}
	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", newCfg.Pprof.Addr),
		)
	}
	return changed, attrs
}

// RestartRequired lists changed keys that only take effect after a restart.
func RestartRequired(oldCfg, newCfg *Config) []string {
	if oldCfg == nil || newCfg == nil {
		return nil
	}
	var keys []string
	if oldCfg.Telegram.Token != newCfg.Telegram.Token {
		keys = append(keys, "telegram.token")
	}
	if strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) {
		keys = append(keys, "telegram.poll_timeout")
	}
	if oldCfg.Storage != newCfg.Storage {
		keys = append(keys, "storage")
	}
	return keys
}
