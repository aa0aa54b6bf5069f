// Package storage keeps encoded string tables as backups, keyed by KSUID.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no backup exists for an id.
var ErrNotFound = errors.New("backup not found")

// Backend stores opaque backup blobs. Ids are KSUIDs and List returns them
// in KSUID order, which is creation order to the second.
type Backend interface {
	Put(ctx context.Context, data []byte) (ksuid.KSUID, error)
	Get(ctx context.Context, id ksuid.KSUID) ([]byte, error)
	Delete(ctx context.Context, id ksuid.KSUID) error
	List(ctx context.Context) ([]ksuid.KSUID, error)
	Close() error
}

// Factory opens backends; the DI container holds one.
type Factory interface {
	Open(cfg *config.Config, logger *zap.Logger) (Backend, error)
}

// DefaultFactory opens the backend named by the configured driver.
type DefaultFactory struct{}

// NewFactory creates the default backend factory
func NewFactory() Factory {
	return &DefaultFactory{}
}

// Open opens the configured backend
func (f *DefaultFactory) Open(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	return Open(cfg, logger)
}

// Open opens the backend selected by cfg.Storage.Driver.
func Open(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPebble, "":
		return NewPebbleStore(cfg.BackupPath(), logger)
	case config.DriverRedis:
		return DialRedis(RedisOptions{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
			TTL:  cfg.Storage.TTL,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ParseID parses the string form of a backup id.
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("invalid backup id %q: %w", s, err)
	}
	return id, nil
}
