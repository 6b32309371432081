package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// MemoryPath is reported as the database path for in-memory stores.
const MemoryPath = ":memory:"

const filePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

// Store is the gateway to the SQLite database holding users, phone numbers,
// and admin credentials. Every exported operation runs exactly one statement.
type Store struct {
	db   *sqlx.DB
	path string
}

// NewStore opens the database file at path, creating its directory if
// needed, and bootstraps the schema. Pass an empty path for an in-memory
// database.
func NewStore(path string) (*Store, error) {
	var dsn string
	if path == "" {
		dsn = MemoryPath + "?_time_format=sqlite"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = path + filePragmas
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// only lives as long as its connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	return s, nil
}

// ResolvePath picks the database location. The primary path is used when its
// directory exists or can be created; otherwise fallback is tried.
func ResolvePath(primary, fallback string) (string, error) {
	err := os.MkdirAll(filepath.Dir(primary), 0755)
	if err == nil {
		return primary, nil
	}
	if fallback == "" {
		return "", fmt.Errorf("create data dir for %s: %w", primary, err)
	}
	if ferr := os.MkdirAll(filepath.Dir(fallback), 0755); ferr != nil {
		return "", fmt.Errorf("create data dir for %s: %w (fallback %s: %v)", primary, err, fallback, ferr)
	}
	return fallback, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, or MemoryPath for in-memory stores.
func (s *Store) Path() string {
	if s.path == "" {
		return MemoryPath
	}
	return s.path
}

// FileInfo reports whether the database file exists on disk and its size in
// bytes. In-memory stores never exist on disk.
func (s *Store) FileInfo() (exists bool, size int64, err error) {
	if s.path == "" {
		return false, 0, nil
	}
	fi, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("stat database: %w", err)
	}
	return true, fi.Size(), nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
