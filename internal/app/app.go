package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/bot"
	"remindbot/internal/config"
	"remindbot/internal/eventbus"
	"remindbot/internal/notifier"
	"remindbot/internal/observability/pprof"
	"remindbot/internal/poller"
	"remindbot/internal/reminder"
	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	telegram "remindbot/internal/transport/telegram/adapter"
	"remindbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store     storage.Store
	adapter   kit.Adapter
	reminders *reminder.Service
	notif     *notifier.Service
	poller    *poller.Service
	handler   *bot.Handler
	pprof     *pprof.Service

	updates chan kit.Update
}

// NewApp loads the config at cfgPath and wires every component. Nothing
// runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateReload(context.Background(), cfg); err != nil {
		return nil, err
	}

	// The logging service is configured after the adapter exists.
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeoutDuration(),
	}, bootLog)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return build(cfgm, cfg, ad)
}

func build(cfgm *config.Manager, cfg *config.Config, ad kit.Adapter) (*App, error) {
	logSvc, log := logx.New(mapLogConfig(cfg))

	st, err := storage.Open(mapStorageConfig(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	pcfg := mapPollerConfig(cfg)
	loc, err := poller.LoadLocation(pcfg.Timezone)
	if err != nil {
		_ = st.Close()
		_ = logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()
	rem := reminder.NewService(st,
		reminder.WithLocation(loc),
		reminder.WithLogger(log.With(logx.String("comp", "reminder"))),
	)
	notif := notifier.New(mapNotifierConfig(cfg), ad, log.With(logx.String("comp", "notifier")), bus)
	logSvc.SetSender(notif)

	a := &App{
		cfgm:      cfgm,
		log:       log.With(logx.String("comp", "app")),
		logs:      logSvc,
		bus:       bus,
		store:     st,
		adapter:   ad,
		reminders: rem,
		notif:     notif,
		poller:    poller.New(pcfg, rem, notif, log.With(logx.String("comp", "poller")), bus),
		handler:   bot.NewHandler(rem, notif, log.With(logx.String("comp", "bot")), bus, bot.Options{}),
		updates:   make(chan kit.Update, 256),
	}
	a.pprof = pprof.New(mapPprofConfig(cfg), a.status, log.With(logx.String("comp", "pprof")))
	return a, nil
}

// Done is closed when the app context is canceled by a fatal error or Stop.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error seen by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validateReload)

	a.logStartupStats(a.sup.Context())

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if mu, ok := a.adapter.(kit.CommandMenuUpdater); ok {
		a.sup.Go0("telegram.menu", func(c context.Context) {
			mctx, cancel := context.WithTimeout(c, 10*time.Second)
			defer cancel()
			if err := mu.UpdateMenuCommands(mctx, bot.Menu()); err != nil {
				a.log.Warn("command menu update failed", logx.Err(err))
			}
		})
	}

	if err := a.poller.Start(a.sup.Context()); err != nil {
		return err
	}

	// The debug server is optional; a bind failure is not fatal.
	if err := a.pprof.Start(a.sup.Context()); err != nil {
		a.log.Warn("pprof start failed", logx.Err(err))
	}

	a.sup.Go("bot.dispatch", func(c context.Context) error {
		return a.handler.DispatchLoop(c, a.updates)
	})

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		applied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, applied, next)
				applied = next
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("app started")
	return nil
}

func (a *App) logStartupStats(ctx context.Context) {
	n, err := a.reminders.Count(ctx)
	if err != nil {
		a.log.Warn("could not count stored reminders", logx.Err(err))
		return
	}
	a.log.Info("reminders loaded",
		logx.Int("count", n),
		logx.String("tz", a.reminders.Location().String()),
	)
}

// applyConfig fans a reloaded config out to the live components.
func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if keys := config.RestartRequired(prev, next); len(keys) > 0 {
		a.log.Warn("config changes need a restart", logx.String("keys", strings.Join(keys, ",")))
	}

	a.logs.Apply(mapLogConfig(next))
	a.notif.Apply(mapNotifierConfig(next))

	pcfg := mapPollerConfig(next)
	if loc, err := poller.LoadLocation(pcfg.Timezone); err == nil {
		a.reminders.SetLocation(loc)
	}
	if err := a.poller.Apply(pcfg); err != nil {
		a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
	}

	if err := a.pprof.Reconfigure(ctx, mapPprofConfig(next)); err != nil {
		a.log.Warn("pprof reconfigure failed", logx.Err(err))
	}

	eventbus.Publish(a.bus, eventbus.TypeConfigReloaded, sections)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	a.step(ctx, "poller", 2*time.Second, func(c context.Context) error { a.poller.Stop(c); return nil })
	a.step(ctx, "pprof", time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	a.step(ctx, "adapter", 2*time.Second, a.adapter.Stop)
	a.step(ctx, "supervisor", 3*time.Second, a.sup.Wait)
	a.step(ctx, "storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	return a.logs.Close()
}

// step runs one shutdown stage bounded by limit and by ctx's own deadline.
// A stage that ignores its context is logged and left behind.
func (a *App) step(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		limit = min(limit, time.Until(dl))
	}
	if limit <= 0 {
		a.log.Warn("stop step skipped, no time left", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}
