package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// StateRecord is a named, persisted SliderState.
type StateRecord struct {
	Name      string      `json:"name"`
	State     SliderState `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// StateStore persists named slider snapshots. Load returns ErrNotFound for
// unknown names; List is ordered by name.
type StateStore interface {
	Save(ctx context.Context, name string, state SliderState) (StateRecord, error)
	Load(ctx context.Context, name string) (StateRecord, error)
	List(ctx context.Context) ([]StateRecord, error)
	Delete(ctx context.Context, name string) (bool, error)
	Close() error
}

// MaxStateNameLength bounds names accepted by state stores.
const MaxStateNameLength = 128

// ValidateStateName rejects empty, oversized or control-character names.
func ValidateStateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("state name must not be empty")
	}
	if len(name) > MaxStateNameLength {
		return fmt.Errorf("state name longer than %d bytes", MaxStateNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("state name %q contains control characters", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s SliderState) Clone() SliderState {
	out := s
	if s.StepInterval != nil {
		iv := *s.StepInterval
		out.StepInterval = &iv
	}
	return out
}
