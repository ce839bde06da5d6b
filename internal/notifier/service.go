package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"remindbot/internal/eventbus"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

var (
	// ErrGatewayUnavailable wraps every failed delivery.
	ErrGatewayUnavailable = errors.New("messaging gateway unavailable")
	ErrEmptyText          = errors.New("empty text")
)

// Service sends text to chats, one synchronous call per Send.
// It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	log     logx.Logger
	adapter TextSender
	bus     eventbus.Bus

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, adapter TextSender, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, log: log, bus: bus}
	s.Apply(cfg)
	return s
}

// Apply swaps the pacing config; safe while sends are in flight.
func (s *Service) Apply(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 300
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiter != nil && s.cfg.RatePerSec == cfg.RatePerSec {
		s.cfg = cfg
		return
	}
	s.cfg = cfg
	// Burst equals the per-second rate so short spikes are not throttled.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send waits for a rate token and delivers text to chatID once.
// Failures are not retried; they come back wrapped in ErrGatewayUnavailable.
func (s *Service) Send(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	lim, timeout, ad := s.limiter, s.cfg.SendTimeout, s.adapter
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return err
	}
	if ad == nil {
		return s.failed(chatID, text, errors.New("no adapter"))
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := ad.SendText(callCtx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true}); err != nil {
		return s.failed(chatID, text, err)
	}

	s.appendHistory(HistoryItem{At: time.Now(), ChatID: chatID, Text: text})
	eventbus.Publish(s.bus, eventbus.TypeReminderSent, SendEvent{ChatID: chatID, Bytes: len(text), At: time.Now()})
	return nil
}

func (s *Service) failed(chatID int64, text string, err error) error {
	err = fmt.Errorf("%w: chat %d: %w", ErrGatewayUnavailable, chatID, err)
	s.log.Debug("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	s.appendHistory(HistoryItem{At: time.Now(), ChatID: chatID, Text: text, Err: err.Error()})
	eventbus.Publish(s.bus, eventbus.TypeSendFailed, SendEvent{ChatID: chatID, Bytes: len(text), At: time.Now(), Error: err.Error()})
	return err
}

// Snapshot returns recent sends, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(it HistoryItem) {
	s.mu.Lock()
	limit := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
	s.hmu.Unlock()
}
