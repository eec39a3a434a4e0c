// Package persist implements the save()/load() dictionary persistence a
// scroll engine and sliced controller use to survive process restarts:
// a Store interface, an in-memory default, and an optional SQLite-backed
// implementation grounded on tekugo-zeichenwerk/cmd/dbu/main.go's
// database/sql + github.com/mattn/go-sqlite3 usage.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the narrow persistence contract: load a previously-saved
// value by key, or save one. A missing key is not an error — Load
// reports ok=false.
type Store interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}

// MemStore is a map-backed Store, the default when no durable backend
// is configured.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (m *MemStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Save implements Store.
func (m *MemStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// SQLiteStore persists scroll state in a SQLite table, so a list's
// scroll position survives a process restart.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite database at
// path and ensures its scroll_state table exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const ddl = `CREATE TABLE IF NOT EXISTS scroll_state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM scroll_state WHERE key = ?`, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte) error {
	const upsert = `INSERT INTO scroll_state(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.ExecContext(ctx, upsert, key, value)
	return err
}

// SaveJSON is a convenience wrapper that marshals v and saves it under
// key.
func SaveJSON(ctx context.Context, store Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Save(ctx, key, b)
}

// LoadJSON is a convenience wrapper that loads key and unmarshals it
// into v. ok is false (with no error) if the key is absent.
func LoadJSON(ctx context.Context, store Store, key string, v any) (ok bool, err error) {
	b, ok, err := store.Load(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	return true, json.Unmarshal(b, v)
}
