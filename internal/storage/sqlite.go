package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"remindbot/internal/reminder"
	"remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sqlx.DB
	log logx.Logger
}

type taskRow struct {
	ID          int64  `db:"id"`
	ChatID      int64  `db:"chat_id"`
	MessageText string `db:"message_text"`
	Date        string `db:"notification_date"`
	Time        string `db:"notification_time"`
}

const selectTasks = `SELECT id, chat_id, message_text, notification_date, notification_time FROM notification_task`

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection: SQLite prefers a single writer, and ":memory:" lives
	// only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Debug("sqlite store opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Save(ctx context.Context, t reminder.Task) (reminder.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_task(chat_id, message_text, notification_date, notification_time)
		 VALUES (?, ?, ?, ?)`,
		t.ChatID, t.MessageText, reminder.FormatDate(t.Date), reminder.FormatClock(t.Time),
	)
	if err != nil {
		return reminder.Task{}, fmt.Errorf("inserting task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return reminder.Task{}, fmt.Errorf("reading task id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (s *sqliteStore) FindByChatID(ctx context.Context, chatID int64) ([]reminder.Task, error) {
	return s.query(ctx, selectTasks+` WHERE chat_id = ? ORDER BY notification_date, notification_time, id`, chatID)
}

func (s *sqliteStore) FindByDateAndTime(ctx context.Context, d reminder.Date, c reminder.Clock) ([]reminder.Task, error) {
	return s.query(ctx, selectTasks+` WHERE notification_date = ? AND notification_time = ? ORDER BY id`,
		reminder.FormatDate(d), reminder.FormatClock(c))
}

func (s *sqliteStore) FindAll(ctx context.Context) ([]reminder.Task, error) {
	return s.query(ctx, selectTasks+` ORDER BY id`)
}

func (s *sqliteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notification_task WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) query(ctx context.Context, q string, args ...any) ([]reminder.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	out := make([]reminder.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r taskRow) task() (reminder.Task, error) {
	d, err := reminder.ParseDate(r.Date)
	if err != nil {
		return reminder.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	c, err := reminder.ParseClock(r.Time)
	if err != nil {
		return reminder.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	return reminder.Task{ID: r.ID, ChatID: r.ChatID, MessageText: r.MessageText, Date: d, Time: c}, nil
}
