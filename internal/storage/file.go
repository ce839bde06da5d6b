package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"remindbot/internal/reminder"
	"remindbot/pkg/logx"
)

// compactEvery is the number of journal writes between snapshot compactions.
const compactEvery = 500

// fileStore is a dependency-free task store.
//
// Files:
//   - <prefix>.tasks.snapshot.json (periodic snapshot)
//   - <prefix>.tasks.journal.jsonl (append-only put/delete journal)
//
// The journal is replayed on open and compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journal      *os.File

	tasks  map[int64]reminder.Task
	nextID int64
	writes int
}

type fileRecord struct {
	ID          int64  `json:"id"`
	ChatID      int64  `json:"chat_id"`
	MessageText string `json:"message_text"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type journalEntry struct {
	Op   string      `json:"op"` // "put" | "del"
	ID   int64       `json:"id"`
	Task *fileRecord `json:"task,omitempty"`
}

type snapshot struct {
	NextID int64        `json:"next_id"`
	Tasks  []fileRecord `json:"tasks"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:          log,
		snapshotPath: prefix + ".tasks.snapshot.json",
		tasks:        map[int64]reminder.Task{},
		nextID:       1,
	}
	journalPath := prefix + ".tasks.journal.jsonl"

	if err := s.loadSnapshot(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if err := s.replayJournal(journalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("replaying journal: %w", err)
	}

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	s.journal = jf

	// Fold whatever was replayed into a fresh snapshot.
	if err := s.compactLocked(); err != nil {
		log.Warn("task journal compact failed", logx.Err(err))
	}
	log.Debug("file store opened", logx.String("prefix", prefix), logx.Int("tasks", len(s.tasks)))
	return s, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}

func (s *fileStore) Save(ctx context.Context, t reminder.Task) (reminder.Task, error) {
	if err := ctx.Err(); err != nil {
		return reminder.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return reminder.Task{}, ErrClosed
	}
	t.ID = s.nextID
	rec := toRecord(t)
	if err := s.appendLocked(journalEntry{Op: "put", ID: t.ID, Task: &rec}); err != nil {
		return reminder.Task{}, err
	}
	s.nextID++
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fileStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return ErrClosed
	}
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err := s.appendLocked(journalEntry{Op: "del", ID: id}); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *fileStore) FindByChatID(ctx context.Context, chatID int64) ([]reminder.Task, error) {
	return s.collect(ctx, func(t reminder.Task) bool { return t.ChatID == chatID })
}

func (s *fileStore) FindByDateAndTime(ctx context.Context, d reminder.Date, c reminder.Clock) ([]reminder.Task, error) {
	return s.collect(ctx, func(t reminder.Task) bool { return t.Date == d && t.Time == c })
}

func (s *fileStore) FindAll(ctx context.Context) ([]reminder.Task, error) {
	return s.collect(ctx, func(reminder.Task) bool { return true })
}

// collect returns matches ordered by (date, time, id), like the sqlite driver.
func (s *fileStore) collect(ctx context.Context, keep func(reminder.Task) bool) ([]reminder.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.journal == nil {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	out := make([]reminder.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		if c := out[i].Time.Compare(out[j].Time); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fileStore) appendLocked(e journalEntry) error {
	if err := json.NewEncoder(s.journal).Encode(e); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	s.writes++
	if s.writes%compactEvery == 0 {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("task journal compact failed", logx.Err(err))
		}
	}
	return nil
}

// compactLocked writes the snapshot atomically and truncates the journal.
func (s *fileStore) compactLocked() error {
	snap := snapshot{NextID: s.nextID, Tasks: make([]fileRecord, 0, len(s.tasks))}
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, toRecord(t))
	}
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })

	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	if err := s.journal.Truncate(0); err != nil {
		return err
	}
	_, err = s.journal.Seek(0, io.SeekEnd)
	return err
}

func (s *fileStore) loadSnapshot() error {
	f, err := os.Open(s.snapshotPath)
	if err != nil {
		return err
	}
	defer f.Close()
	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	for _, r := range snap.Tasks {
		t, err := r.task()
		if err != nil {
			s.log.Warn("skipping bad snapshot record", logx.Int64("id", r.ID), logx.Err(err))
			continue
		}
		s.tasks[t.ID] = t
		s.bumpNextID(t.ID)
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	return nil
}

func (s *fileStore) replayJournal(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e journalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			// A torn last line after a crash is expected; skip it.
			continue
		}
		switch e.Op {
		case "put":
			if e.Task == nil {
				continue
			}
			t, err := e.Task.task()
			if err != nil {
				continue
			}
			s.tasks[t.ID] = t
			s.bumpNextID(t.ID)
		case "del":
			delete(s.tasks, e.ID)
			s.bumpNextID(e.ID)
		}
	}
	return sc.Err()
}

// bumpNextID keeps IDs unique even if a deleted task was the newest one.
func (s *fileStore) bumpNextID(seen int64) {
	if seen >= s.nextID {
		s.nextID = seen + 1
	}
}

func toRecord(t reminder.Task) fileRecord {
	return fileRecord{
		ID:          t.ID,
		ChatID:      t.ChatID,
		MessageText: t.MessageText,
		Date:        reminder.FormatDate(t.Date),
		Time:        reminder.FormatClock(t.Time),
	}
}

func (r fileRecord) task() (reminder.Task, error) {
	d, err := reminder.ParseDate(r.Date)
	if err != nil {
		return reminder.Task{}, err
	}
	c, err := reminder.ParseClock(r.Time)
	if err != nil {
		return reminder.Task{}, err
	}
	return reminder.Task{ID: r.ID, ChatID: r.ChatID, MessageText: r.MessageText, Date: d, Time: c}, nil
}
