package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is an in-memory table store with change notification.
//
// All SQL runs on one connection. A ":memory:" database lives and dies with
// its connection, so the pool must never open a second one.
type Store struct {
	db *sql.DB

	mu        sync.RWMutex
	schema    TablesSchema
	listeners map[string]map[int]TableListener
	nextID    int
}

// Open creates an empty store backed by a private in-memory SQLite database.
//
// The database is configured with:
//   - a single connection that is never recycled
//   - in-memory journal and temp storage
//   - synchronous=OFF, since nothing is persisted
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{
		db:        db,
		schema:    TablesSchema{},
		listeners: make(map[string]map[int]TableListener),
	}, nil
}

// Close releases the database. All rows are lost.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Callers must close any *sql.Rows before touching the Store again: the
// single connection is held until then.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Tables returns the declared table names in sorted order.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.schema))
	for name := range s.schema {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TableSchema returns the declared schema of a table.
func (s *Store) TableSchema(table string) (TableSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.schema[table]
	return ts, ok
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = OFF",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
