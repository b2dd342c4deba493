// Package memory provides an in-memory slider state store used for tests,
// ephemeral sessions and as the cache the SQL-backed stores hydrate on open.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"timeslider/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store satisfies the domain interface.
var _ domain.StateStore = (*Store)(nil)

// Store keeps named slider states in a map.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.StateRecord
	nowFn   func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]domain.StateRecord),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock stamping UpdatedAt.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Save validates and stores state under name, replacing any previous record.
func (s *Store) Save(_ context.Context, name string, state domain.SliderState) (domain.StateRecord, error) {
	if err := domain.ValidateStateName(name); err != nil {
		return domain.StateRecord{}, err
	}
	if err := state.Validate(); err != nil {
		return domain.StateRecord{}, fmt.Errorf("validate state %q: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.StateRecord{Name: name, State: state.Clone(), UpdatedAt: s.nowFn()}
	s.records[name] = rec
	return cloneRecord(rec), nil
}

// Load returns the record stored under name or domain.ErrNotFound.
func (s *Store) Load(_ context.Context, name string) (domain.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return domain.StateRecord{}, fmt.Errorf("state %q: %w", name, domain.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// List returns every record ordered by name.
func (s *Store) List(_ context.Context) ([]domain.StateRecord, error) {
	return s.ExportState(), nil
}

// Delete removes name and reports whether it existed.
func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[name]; !ok {
		return false, nil
	}
	delete(s.records, name)
	return true, nil
}

// Close implements domain.StateStore.
func (s *Store) Close() error { return nil }

// ExportState clones all records, ordered by name, for external persistence.
func (s *Store) ExportState() []domain.StateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StateRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ImportState replaces the store contents with records.
func (s *Store) ImportState(records []domain.StateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.StateRecord, len(records))
	for _, rec := range records {
		s.records[rec.Name] = cloneRecord(rec)
	}
}

// Put stores rec as-is, keeping its UpdatedAt. Backends use it after a
// successful write.
func (s *Store) Put(rec domain.StateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Name] = cloneRecord(rec)
}

func cloneRecord(rec domain.StateRecord) domain.StateRecord {
	rec.State = rec.State.Clone()
	return rec
}
