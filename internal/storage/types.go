package storage

import (
	"errors"
	"time"

	"remindbot/internal/reminder"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrClosed   = errors.New("storage closed")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (":memory:" works for tests)
//   - "file":   dependency-free snapshot + journal files
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the task store used by the reminder service.
type Store interface {
	reminder.Store
	Close() error
}
