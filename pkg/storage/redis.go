package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/logging"
	"go.uber.org/zap"
)

const redisKeyPrefix = "stf:backup:"

// The "count" argument to SCAN. var for testing.
var scanCount int64 = 100

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr string
	DB   int
	TTL  time.Duration // zero keeps backups forever
}

// RedisStore keeps backups in redis, optionally expiring them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: logging.OrNop(logger)}
}

// DialRedis connects to redis and checks the connection.
func DialRedis(opts RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, opts.TTL, logger), nil
}

func redisKey(id ksuid.KSUID) string {
	return redisKeyPrefix + id.String()
}

// Put stores data under a fresh id.
func (s *RedisStore) Put(ctx context.Context, data []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.client.Set(ctx, redisKey(id), data, s.ttl).Err(); err != nil {
		return ksuid.Nil, fmt.Errorf("Put(%s): %w", id, err)
	}
	s.logger.Debug("stored backup", zap.Stringer("backup_id", id), zap.Int("bytes", len(data)), zap.Duration("ttl", s.ttl))
	return id, nil
}

// Get returns the stored data.
func (s *RedisStore) Get(ctx context.Context, id ksuid.KSUID) ([]byte, error) {
	val, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil { // not found
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get(%s): %w", id, err)
	}
	return val, nil
}

// Delete removes a backup. Deleting a missing id returns ErrNotFound.
func (s *RedisStore) Delete(ctx context.Context, id ksuid.KSUID) error {
	n, err := s.client.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("Delete(%s): %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns all backup ids in KSUID order.
func (s *RedisStore) List(ctx context.Context) ([]ksuid.KSUID, error) {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", scanCount).Iterator()
	var ids []ksuid.KSUID
	for iter.Next(ctx) {
		id, err := ksuid.Parse(strings.TrimPrefix(iter.Val(), redisKeyPrefix))
		if err != nil {
			s.logger.Warn("skipping malformed backup key", zap.String("key", iter.Val()))
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("List(): %w", err)
	}
	ksuid.Sort(ids)
	return ids, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
