// Package poller delivers due reminders on a cron schedule.
//
// Each tick moves the poller from Idle to Dispatching, asks the reminder
// service for the tasks due in the observed minute, sends each one through the
// gateway and returns to Idle. A failed send is counted and logged; the rest
// of the batch still runs. A tick that fires while the previous batch is still
// dispatching is skipped.
package poller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/eventbus"
	"remindbot/internal/reminder"
	"remindbot/pkg/logx"
)

// DefaultSpec fires at second 0 of every minute.
const DefaultSpec = "0 * * * * *"

type Config struct {
	Enabled  bool
	Spec     string // cron, seconds field optional; "" means DefaultSpec
	Timezone string // IANA name; "" or "Local" means the process zone
}

type State int32

const (
	Idle State = iota
	Dispatching
)

func (s State) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// Report summarises one tick.
type Report struct {
	At      time.Time
	Due     int
	Sent    int
	Failed  int
	Skipped bool
	Err     error
}

// DueSource returns the tasks scheduled for the minute of at.
type DueSource interface {
	Due(ctx context.Context, at time.Time) ([]reminder.Task, error)
}

// Sender delivers one text to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Service struct {
	mu  sync.Mutex
	cfg Config
	loc *time.Location
	c   *cron.Cron
	ctx context.Context

	src    DueSource
	sender Sender
	log    logx.Logger
	bus    eventbus.Bus

	state atomic.Int32
	last  atomic.Pointer[Report]
	now   func() time.Time
}

func New(cfg Config, src DueSource, sender Sender, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{cfg: normalize(cfg), src: src, sender: sender, log: log, bus: bus, now: time.Now}
	loc, err := LoadLocation(s.cfg.Timezone)
	if err != nil {
		log.Warn("bad timezone, using local", logx.String("tz", s.cfg.Timezone), logx.Err(err))
		loc = time.Local
	}
	s.loc = loc
	return s
}

func normalize(cfg Config) Config {
	cfg.Spec = strings.TrimSpace(cfg.Spec)
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	return cfg
}

// LoadLocation resolves a configured zone name.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ValidateConfig checks the spec and timezone without starting anything.
func ValidateConfig(cfg Config) error {
	cfg = normalize(cfg)
	if _, err := parser.Parse(cfg.Spec); err != nil {
		return fmt.Errorf("scheduler.spec %q: %w", cfg.Spec, err)
	}
	if _, err := LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Location is the zone ticks are observed in.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

func (s *Service) State() State { return State(s.state.Load()) }

// LastReport returns the most recent tick report, if any.
func (s *Service) LastReport() (Report, bool) {
	if r := s.last.Load(); r != nil {
		return *r, true
	}
	return Report{}, false
}

// Start begins cron triggering. With Enabled false it only records ctx so a
// later Apply can turn the schedule on.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	if !s.cfg.Enabled {
		s.log.Info("poller disabled")
		return nil
	}
	return s.startLocked()
}

func (s *Service) startLocked() error {
	if s.c != nil {
		return nil
	}
	cl := cronLogger{log: s.log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	ctx := s.ctx
	if _, err := c.AddFunc(s.cfg.Spec, func() { s.Tick(ctx, s.now()) }); err != nil {
		return fmt.Errorf("poller spec %q: %w", s.cfg.Spec, err)
	}
	c.Start()
	s.c = c
	s.log.Info("poller started", logx.String("spec", s.cfg.Spec), logx.String("tz", s.loc.String()))
	return nil
}

// Stop stops triggering and waits for a running tick, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("poller stop timed out", logx.Err(ctx.Err()))
	}
	s.log.Info("poller stopped")
}

// Apply swaps the config. A running schedule is rebuilt when the spec or
// zone changed, and started or stopped when Enabled flipped.
func (s *Service) Apply(cfg Config) error {
	cfg = normalize(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	loc, _ := LoadLocation(cfg.Timezone)

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := cfg.Spec != s.cfg.Spec || loc.String() != s.loc.String()
	s.cfg, s.loc = cfg, loc

	if s.ctx == nil {
		return nil
	}
	if s.c != nil && (!cfg.Enabled || changed) {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if cfg.Enabled {
		return s.startLocked()
	}
	return nil
}

// Tick runs one Idle -> Dispatching -> Idle cycle for the minute of at.
// A concurrent Tick is skipped and reported as such.
func (s *Service) Tick(ctx context.Context, at time.Time) Report {
	rep := Report{At: at}
	if !s.state.CompareAndSwap(int32(Idle), int32(Dispatching)) {
		rep.Skipped = true
		s.log.Warn("tick skipped, previous batch still dispatching", logx.Time("at", at))
		return rep
	}
	defer s.state.Store(int32(Idle))
	defer func() {
		s.last.Store(&rep)
		eventbus.Publish(s.bus, eventbus.TypePollerTick, rep)
	}()

	tasks, err := s.src.Due(ctx, at.In(s.Location()))
	if err != nil {
		rep.Err = err
		s.log.Error("due lookup failed", logx.Time("at", at), logx.Err(err))
		return rep
	}
	rep.Due = len(tasks)
	for _, t := range tasks {
		if err := s.sender.Send(ctx, t.ChatID, t.String()); err != nil {
			rep.Failed++
			s.log.Warn("reminder not delivered", logx.Int64("task_id", t.ID), logx.Int64("chat_id", t.ChatID), logx.Err(err))
			continue
		}
		rep.Sent++
	}
	if rep.Due > 0 {
		s.log.Info("reminders dispatched", logx.Int("due", rep.Due), logx.Int("sent", rep.Sent), logx.Int("failed", rep.Failed))
	}
	return rep
}

// cronLogger routes robfig/cron logs into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
