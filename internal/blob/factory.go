package blob

import (
	"context"
	"fmt"
	"strings"

	"timeslider/internal/infra/blob/fs"
	memorystore "timeslider/internal/infra/blob/memory"
	infraS3 "timeslider/internal/infra/blob/s3"
)

// S3Config re-exports the S3 construction parameters.
type S3Config = infraS3.Config

// Config selects and configures a blob backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// ParseDriver normalises a driver name; empty selects the filesystem.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DriverFilesystem, nil
	case DriverFilesystem, DriverS3, DriverMemory:
		return d, nil
	}
	return "", fmt.Errorf("unknown blob driver %s", s)
}

// Open constructs the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver, err := ParseDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverS3:
		s, err := infraS3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		s, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests returns an S3 Store over an in-memory fake bucket.
func NewMockS3ForTests() Store { return infraS3.NewMock() }
