// Package store provides the sqlite data access layer for qatrack.
//
// The pipelines (qap, report, closure) never open their own database; they
// receive a *Store (or a narrow interface satisfied by it) so tests can
// substitute doubles.
//
// Usage:
//
//	st, err := store.Open("db/qatrack.db")
//
// In tests:
//
//	st := store.OpenMemory(t)
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the application database.
type Store struct {
	DB *sql.DB
}

// New wraps an already-opened database. The schema must have been applied.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Open opens the sqlite database at path with production-safe pragmas and
// applies the schema. Parent directories are created if missing.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{DB: db}, nil
}

// OpenMemory opens an in-memory database for testing. MaxOpenConns is pinned
// to 1 so every query hits the same in-memory database, and t.Cleanup closes
// it automatically.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	st.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { st.DB.Close() })
	return st
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
