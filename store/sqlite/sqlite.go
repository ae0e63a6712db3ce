/*
Package sqlite provides a SQLite-backed blob store.

PURPOSE:
  Durable storage for the KPI entry cache. The cache serialises its whole
  state to one JSON blob; this package keeps such blobs by key so the
  cache survives process restarts.

INTERFACES IMPLEMENTED:
  cache.Storage: Load / Save / Delete of named blobs

KEY TABLES:
  blobs: key -> value, with the time of the last write

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  An in-memory database is pinned to a single connection, otherwise every
  pooled connection would see its own empty database.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/kpitrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  c := cache.Open(ctx, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - cache/storage.go: Storage interface, MemoryStorage
  - cache/cache.go:   The blob layout
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/kpi-tracker/cache"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store keeps named blobs in SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ cache.Storage = (*Store)(nil)

// New opens (or creates) the database at dbPath and migrates it.
// Use MemoryPath for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == MemoryPath {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BLOB STORE (cache.Storage interface)
// =============================================================================

// Load returns the blob stored under key, or nil if there is none.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Save writes data under key, replacing any previous blob.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = []byte{}
	}
	query := `
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, data, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	return nil
}

// Delete removes the blob under key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// BlobInfo describes a stored blob without its contents.
type BlobInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Keys lists stored blobs ordered by key.
func (s *Store) Keys(ctx context.Context) ([]BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, length(value), updated_at FROM blobs ORDER BY key",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []BlobInfo
	for rows.Next() {
		var info BlobInfo
		var updatedAt string
		if err := rows.Scan(&info.Key, &info.Size, &updatedAt); err != nil {
			return nil, err
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Reset deletes every blob (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs")
	return err
}
