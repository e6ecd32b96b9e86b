// Package store persists the household collections in sqlite. All records
// are loaded into memory at open; writes are staged against the in-memory
// copy and flushed to disk in a single transaction on Commit.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"keeper/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	features TEXT NOT NULL DEFAULT '[]',
	visibility TEXT NOT NULL,
	location_id TEXT NOT NULL DEFAULT '',
	responsible TEXT NOT NULL DEFAULT '[]',
	attachment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS locations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	visibility TEXT NOT NULL,
	responsible TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	starts_at TIMESTAMP,
	ends_at TIMESTAMP,
	owner_id TEXT NOT NULL DEFAULT '',
	location_id TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS members (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

type stagedWrite struct {
	query string
	args  []any
}

// Store implements domain.Mutator over a sqlite file.
type Store struct {
	db   *sql.DB
	path string

	mu        sync.Mutex
	committed domain.Snapshot
	working   domain.Snapshot
	staged    []stagedWrite
}

// Open loads (or creates) the database at path and reads every collection
// into memory.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	s.working = s.committed.Clone()
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Snapshot returns the working state: committed data plus any staged
// writes, so a batch can read its own pending mutations.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Commit flushes the staged batch in one transaction. On failure nothing
// is written and the working state is rolled back to the last commit.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.staged) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		s.rollbackLocked()
		return fmt.Errorf("begin commit: %w", err)
	}
	for _, write := range s.staged {
		if _, err := tx.Exec(write.query, write.args...); err != nil {
			tx.Rollback()
			s.rollbackLocked()
			return fmt.Errorf("flush batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.rollbackLocked()
		return fmt.Errorf("commit batch: %w", err)
	}
	s.committed = s.working.Clone()
	s.staged = nil
	return nil
}

// Discard drops any staged writes without touching disk.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbackLocked()
}

func (s *Store) rollbackLocked() {
	s.working = s.committed.Clone()
	s.staged = nil
}

func (s *Store) stage(write stagedWrite, apply func(*domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.working)
	s.staged = append(s.staged, write)
}

func encodeList[T ~string](values []T) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeList[T ~string](raw string) []T {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func fromNullTime(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Time{}
}
