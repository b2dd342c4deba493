package core

import (
	"context"
	"fmt"
	"strings"

	"timeslider/internal/infra/persistence/memory"
	"timeslider/internal/infra/persistence/postgres"
	"timeslider/internal/infra/persistence/sqlite"
	"timeslider/pkg/domain"
)

// StorageDriver identifies a concrete slider state store.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StateStore is the persistence contract for named slider snapshots.
type StateStore = domain.StateStore

// StorageConfig selects and configures a state store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// ParseStorageDriver normalises a driver name; empty selects sqlite.
func ParseStorageDriver(s string) (StorageDriver, error) {
	switch d := StorageDriver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return StorageSQLite, nil
	case StorageMemory, StorageSQLite, StoragePostgres:
		return d, nil
	}
	return "", fmt.Errorf("unknown storage driver %s", s)
}

// OpenStateStore opens the backend named by cfg.Driver.
func OpenStateStore(ctx context.Context, cfg StorageConfig) (StateStore, error) {
	driver, err := ParseStorageDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
