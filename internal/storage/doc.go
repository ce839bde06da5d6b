// Package storage persists reminder tasks.
//
// Two drivers implement reminder.Store:
//   - sqlite: the default, one table with indexes on chat id and (date, time)
//   - file:   a JSON snapshot plus an append-only journal, no database needed
package storage
