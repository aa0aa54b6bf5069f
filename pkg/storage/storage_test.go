// github.com/alicebob/miniredis/v2 pulls in
// github.com/yuin/gopher-lua which uses a non
// build-tag-guarded use of the syscall package.
//go:build !plan9

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/stfkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPebble(t *testing.T) Backend {
	t.Helper()
	s, err := NewPebbleStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRedis(t *testing.T) (Backend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour, nil)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Backend{
		"pebble": newPebble,
		"redis": func(t *testing.T) Backend {
			s, _ := newRedis(t)
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			ids, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			first := []byte{0xCD, 0xAB, 0x00, 0x00, 0x01}
			second := []byte{0xCD, 0xAB, 0x00, 0x00, 0x02}

			id1, err := s.Put(ctx, first)
			require.NoError(t, err)
			id2, err := s.Put(ctx, second)
			require.NoError(t, err)
			assert.NotEqual(t, id1, id2)

			got, err := s.Get(ctx, id1)
			require.NoError(t, err)
			if !cmp.Equal(got, first) {
				t.Fatalf("got %v, want %v", got, first)
			}

			ids, err = s.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []ksuid.KSUID{id1, id2}, ids)
			assert.True(t, ksuid.IsSorted(ids), "ids are listed in ksuid order")

			require.NoError(t, s.Delete(ctx, id1))
			_, err = s.Get(ctx, id1)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, id1), ErrNotFound)

			ids, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []ksuid.KSUID{id2}, ids)
		})
	}
}

func TestPebbleStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newPebble(t)

	id, err := s.Put(ctx, []byte("abc"))
	require.NoError(t, err)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	got[0] = 'z'

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestPebbleStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewPebbleStore(dir, nil)
	require.NoError(t, err)
	id, err := s.Put(ctx, []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewPebbleStore(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)

	id, err := s.Put(ctx, []byte("short lived"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+id.String()))

	mr.FastForward(2 * time.Hour)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ListScansInBatches(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)

	defer func(n int64) { scanCount = n }(scanCount)
	scanCount = 1

	var want []ksuid.KSUID
	for i := 0; i < 5; i++ {
		id, err := s.Put(ctx, []byte{byte(i)})
		require.NoError(t, err)
		want = append(want, id)
	}
	require.NoError(t, mr.Set(redisKeyPrefix+"not-a-ksuid", "x"))
	require.NoError(t, mr.Set("unrelated", "x"))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

func TestOpen(t *testing.T) {
	t.Run("pebble", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()
		b, err := NewFactory().Open(cfg, nil)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &PebbleStore{}, b)
		assert.DirExists(t, cfg.BackupPath())
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		cfg := config.DefaultConfig()
		cfg.Storage.Driver = config.DriverRedis
		cfg.Storage.RedisAddr = mr.Addr()
		b, err := Open(cfg, nil)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &RedisStore{}, b)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.Driver = config.DriverRedis
		cfg.Storage.RedisAddr = "127.0.0.1:1"
		_, err := Open(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.Driver = "tape"
		_, err := Open(cfg, nil)
		assert.Error(t, err)
	})
}

func TestParseID(t *testing.T) {
	id := ksuid.New()
	got, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("nope")
	assert.Error(t, err)
}
