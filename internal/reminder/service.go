package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"remindbot/pkg/logx"
)

// Store is the persistence the service needs. internal/storage provides the
// sqlite and file implementations.
type Store interface {
	// Save assigns an ID and persists t, returning the stored record.
	Save(ctx context.Context, t Task) (Task, error)
	FindByChatID(ctx context.Context, chatID int64) ([]Task, error)
	FindByDateAndTime(ctx context.Context, d Date, c Clock) ([]Task, error)
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]Task, error)
}

// Service runs the chat operations on top of a Store.
type Service struct {
	store Store
	log   logx.Logger
	now   func() time.Time
	loc   atomic.Pointer[time.Location]
}

type Option func(*Service)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.SetLocation(loc) }
}

func WithLogger(log logx.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	s.loc.Store(time.Local)
	for _, o := range opts {
		o(s)
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	return s
}

// SetLocation swaps the canonical zone; safe during config hot reload.
func (s *Service) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.loc.Store(loc)
}

func (s *Service) Location() *time.Location { return s.loc.Load() }

// Now returns the current instant in the service zone.
func (s *Service) Now() time.Time { return s.now().In(s.Location()) }

// Create validates text and saves it as a task for chatID.
// Validation failures are returned as *ValidationError.
func (s *Service) Create(ctx context.Context, chatID int64, text string) (Task, error) {
	p, err := Validate(text, s.Now())
	if err != nil {
		return Task{}, err
	}
	saved, err := s.store.Save(ctx, Task{
		ChatID:      chatID,
		MessageText: p.Note,
		Date:        p.Date,
		Time:        p.Time,
	})
	if err != nil {
		return Task{}, storeErr("save", err)
	}
	s.log.Debug("task saved", logx.Int64("id", saved.ID), logx.Int64("chat_id", chatID))
	return saved, nil
}

// All lists every task of chatID.
func (s *Service) All(ctx context.Context, chatID int64) ([]Task, error) {
	tasks, err := s.store.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, storeErr("find by chat", err)
	}
	return tasks, nil
}

// Future lists tasks of chatID strictly after now.
func (s *Service) Future(ctx context.Context, chatID int64) ([]Task, error) {
	tasks, err := s.All(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	return Future(tasks, DateOf(now), ClockOf(now)), nil
}

// DeletePast removes tasks of chatID strictly before now and returns the ones
// actually deleted. Deletion is per id; a failed delete is reported but the
// rest of the batch still runs.
func (s *Service) DeletePast(ctx context.Context, chatID int64) ([]Task, error) {
	tasks, err := s.All(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	past := Past(tasks, DateOf(now), ClockOf(now))

	deleted := make([]Task, 0, len(past))
	var errs []error
	for _, t := range past {
		if err := s.store.Delete(ctx, t.ID); err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", t.ID, err))
			continue
		}
		deleted = append(deleted, t)
	}
	if len(errs) > 0 {
		return deleted, storeErr("delete", errors.Join(errs...))
	}
	return deleted, nil
}

// Due returns tasks scheduled for the minute of at. The store lookup is exact
// on (date, HH:MM:00); at's seconds are dropped so a tick that fires a little
// late within the minute still matches.
func (s *Service) Due(ctx context.Context, at time.Time) ([]Task, error) {
	at = at.In(s.Location())
	d, c := DateOf(at), ClockOf(at).TruncateMinute()
	tasks, err := s.store.FindByDateAndTime(ctx, d, c)
	if err != nil {
		return nil, storeErr("find due", err)
	}
	return DueNow(tasks, d, c), nil
}

// Count returns the number of stored tasks.
func (s *Service) Count(ctx context.Context) (int, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, storeErr("find all", err)
	}
	return len(tasks), nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
