// Package postgres persists named slider states in PostgreSQL through the pgx
// database/sql driver. Records are hydrated into an in-memory cache on open
// and written through on every change.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"timeslider/internal/infra/persistence/memory"
	"timeslider/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.StateStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/timeslider?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a write-through Postgres state store.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a store using dsn (DefaultDSN when empty), ensures the
// slider_state table exists and loads existing records.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	records, err := loadRecords(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(records)
	return &Store{Store: mem, db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS slider_state (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure slider_state table: %w", err)
	}
	return nil
}

func loadRecords(ctx context.Context, db *sql.DB) ([]domain.StateRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, payload, updated_at FROM slider_state ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select slider_state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.StateRecord
	for rows.Next() {
		var (
			name    string
			payload []byte
			updated time.Time
		)
		if err := rows.Scan(&name, &payload, &updated); err != nil {
			return nil, fmt.Errorf("scan slider_state: %w", err)
		}
		var state domain.SliderState
		if err := json.Unmarshal(payload, &state); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		records = append(records, domain.StateRecord{Name: name, State: state, UpdatedAt: updated.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slider_state: %w", err)
	}
	return records, nil
}

// Save validates state, upserts it and caches it.
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
	// postgres keeps microseconds
	rec := domain.StateRecord{Name: name, State: state.Clone(), UpdatedAt: s.NowFunc()().Truncate(time.Microsecond)}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StateRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO slider_state(name,payload,updated_at) VALUES($1,$2,$3) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		name, payload, rec.UpdatedAt); err != nil {
		return domain.StateRecord{}, fmt.Errorf("upsert %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.StateRecord{}, fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.Put(rec)
	return rec, nil
}

// Delete removes name from Postgres and the cache.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM slider_state WHERE name = $1`, name)
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

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
