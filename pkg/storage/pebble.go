package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/logging"
	"go.uber.org/zap"
)

var backupPrefix = []byte("backup/")

// PebbleStore keeps backups in a local pebble database.
type PebbleStore struct {
	db     *pebble.DB
	logger *zap.Logger
}

// NewPebbleStore opens (or creates) a pebble database at path.
func NewPebbleStore(path string, logger *zap.Logger) (*PebbleStore, error) {
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open backup store: %w", err)
	}
	return &PebbleStore{db: db, logger: logging.OrNop(logger)}, nil
}

func backupKey(id ksuid.KSUID) []byte {
	return append(append([]byte(nil), backupPrefix...), id.Bytes()...)
}

// Put stores data under a fresh id and syncs it to disk.
func (s *PebbleStore) Put(_ context.Context, data []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.db.Set(backupKey(id), data, pebble.Sync); err != nil {
		return ksuid.Nil, err
	}
	s.logger.Debug("stored backup", zap.Stringer("backup_id", id), zap.Int("bytes", len(data)))
	return id, nil
}

// Get returns a copy of the stored data.
func (s *PebbleStore) Get(_ context.Context, id ksuid.KSUID) ([]byte, error) {
	data, closer, err := s.db.Get(backupKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), data...), nil
}

// Delete removes a backup. Deleting a missing id returns ErrNotFound.
func (s *PebbleStore) Delete(ctx context.Context, id ksuid.KSUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.Delete(backupKey(id), pebble.Sync)
}

// List returns all backup ids in KSUID order.
func (s *PebbleStore) List(_ context.Context) ([]ksuid.KSUID, error) {
	upper := append([]byte(nil), backupPrefix...)
	upper[len(upper)-1]++

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: backupPrefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(backupPrefix):])
		if err != nil {
			return nil, fmt.Errorf("corrupt backup key %x: %w", iter.Key(), err)
		}
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
