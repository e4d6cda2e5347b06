// Package archive keeps harvested crash reports in SQLite so they outlive the
// purge that follows every harvest.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotInitialized is returned when the archive schema has not been created.
var ErrNotInitialized = errors.New("archive not initialized: run 'crashkeep harvest' first")

// ErrNotFound is returned when no archived report matches an ID.
var ErrNotFound = errors.New("archived report not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one report.
var ErrAmbiguousID = errors.New("report ID prefix is ambiguous")

// Store provides SQLite operations on the archive.
type Store struct {
	db       *sql.DB
	compress bool
}

// Option configures a Store.
type Option func(*Store)

// WithCompression stores new report bodies zstd-compressed.
func WithCompression(enabled bool) Option {
	return func(s *Store) { s.compress = enabled }
}

// New opens the archive at dbPath, creating its parent directory if needed.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, compress: true}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// wrapErr maps SQLite's missing-table error to ErrNotInitialized.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
