// Package sqlite persists named slider states in an embedded SQLite file. The
// table is read into an in-memory cache on open and every Save or Delete is
// written through.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"timeslider/internal/infra/persistence/memory"
	"timeslider/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.StateStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "timeslider.db"

// Store is a write-through SQLite state store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating when needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slider_state (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create slider_state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, payload, updated_at FROM slider_state ORDER BY name`)
	if err != nil {
		return fmt.Errorf("select slider_state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var records []domain.StateRecord
	for rows.Next() {
		var (
			name    string
			payload []byte
			updated int64
		)
		if err := rows.Scan(&name, &payload, &updated); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var state domain.SliderState
		if err := json.Unmarshal(payload, &state); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		records = append(records, domain.StateRecord{Name: name, State: state, UpdatedAt: time.UnixMilli(updated).UTC()})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate slider_state: %w", err)
	}
	s.ImportState(records)
	return nil
}

// Save validates state, writes it to SQLite and caches it.
func (s *Store) Save(ctx context.Context, name string, state domain.SliderState) (domain.StateRecord, error) {
	if err := domain.ValidateStateName(name); err != nil {
		return domain.StateRecord{}, err
	}
	if err := state.Validate(); err != nil {
		return domain.StateRecord{}, fmt.Errorf("validate state %q: %w", name, err)
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return domain.StateRecord{}, fmt.Errorf("encode %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.StateRecord{Name: name, State: state.Clone(), UpdatedAt: s.NowFunc()().Truncate(time.Millisecond)}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO slider_state(name,payload,updated_at) VALUES(?,?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		name, payload, rec.UpdatedAt.UnixMilli()); err != nil {
		return domain.StateRecord{}, fmt.Errorf("upsert %s: %w", name, err)
	}
	s.Put(rec)
	return rec, nil
}

// Delete removes name from SQLite and the cache.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM slider_state WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	_, _ = s.Store.Delete(ctx, name)
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
