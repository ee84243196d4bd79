package redis_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/redis"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis, *redis.Handle) {
	t.Helper()
	mr := miniredis.RunT(t)
	h := redis.NewHandle(redis.Config{
		ConnectionURL:  "redis://" + mr.Addr(),
		RetryAttempts:  1,
		ConnectTimeout: time.Second,
	})
	t.Cleanup(func() { _ = h.Close() })
	return redis.NewStore(h), mr, h
}

func TestStore_Lists(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newStore(t)

	require.NoError(t, s.ListPush(ctx, "l", "a"))
	require.NoError(t, s.ListPush(ctx, "l", "b"))

	items, err := s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, items)

	n, err := s.ListRemove(ctx, "l", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := mr.List("l")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)

	require.NoError(t, s.Expire(ctx, "l", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("l"))
	mr.FastForward(time.Minute)
	items, err = s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_HashesAndStrings(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newStore(t)

	require.NoError(t, s.HashSet(ctx, "h", "f", "v1"))
	require.NoError(t, s.HashSet(ctx, "h", "f", "v2"))
	assert.Equal(t, "v2", mr.HGet("h", "f"))

	all, err := s.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f": "v2"}, all)

	n, err := s.HashDelete(ctx, "h", "f", "g")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", 2*time.Minute))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 2*time.Minute, mr.TTL("k"))

	seq, err := s.Incr(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	_, err = s.ListRange(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrWrongType)
	assert.NotErrorIs(t, err, kvstore.ErrUnavailable)

	require.NoError(t, s.Delete(ctx, "k", "seq"))
	assert.False(t, mr.Exists("k"))
}

func TestStore_PubSub(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	sub, err := s.Subscribe(ctx, "notification:global")
	require.NoError(t, err)

	for _, m := range []string{"one", "two"} {
		require.NoError(t, s.Publish(ctx, "notification:global", m))
	}
	require.NoError(t, s.Publish(ctx, "notification:other", "x"))

	for _, want := range []string{"one", "two"} {
		select {
		case got := <-sub.Messages():
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	}

	require.NoError(t, sub.Close())
	assert.Eventually(t, func() bool {
		_, open := <-sub.Messages()
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_SubscriptionEndsWithContext(t *testing.T) {
	s, _, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := s.Subscribe(ctx, "ch")
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, open := <-sub.Messages():
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_ReconnectsAfterOutage(t *testing.T) {
	ctx := context.Background()
	s, mr, h := newStore(t)

	require.NoError(t, s.Ping(ctx))

	mr.Close()
	err := s.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, kvstore.ErrUnavailable)
	assert.Error(t, redis.Healthcheck(h)(ctx))

	require.NoError(t, mr.Restart())
	require.NoError(t, s.Ping(ctx))
	assert.NoError(t, redis.Healthcheck(h)(ctx))
}

func TestHandle(t *testing.T) {
	t.Run("dials once and reuses", func(t *testing.T) {
		mr := miniredis.RunT(t)
		var dials atomic.Int32
		h := redis.NewHandle(redis.Config{}, redis.WithDialer(func(ctx context.Context, _ redis.Config) (goredis.UniversalClient, error) {
			dials.Add(1)
			return goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), nil
		}))
		defer h.Close()

		c1, err := h.Client(context.Background())
		require.NoError(t, err)
		c2, err := h.Client(context.Background())
		require.NoError(t, err)
		assert.Same(t, c1, c2)
		assert.Equal(t, int32(1), dials.Load())

		h.Invalidate(c1)
		c3, err := h.Client(context.Background())
		require.NoError(t, err)
		assert.NotSame(t, c1, c3)
		assert.Equal(t, int32(2), dials.Load())

		h.Invalidate(c1)
		c4, err := h.Client(context.Background())
		require.NoError(t, err)
		assert.Same(t, c3, c4, "stale invalidate keeps the current client")
	})

	t.Run("dial failure surfaces as unavailable", func(t *testing.T) {
		boom := errors.New("boom")
		h := redis.NewHandle(redis.Config{}, redis.WithDialer(func(context.Context, redis.Config) (goredis.UniversalClient, error) {
			return nil, boom
		}))
		s := redis.NewStore(h)

		err := s.Publish(context.Background(), "ch", "x")
		assert.ErrorIs(t, err, kvstore.ErrUnavailable)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("closed handle", func(t *testing.T) {
		h := redis.NewHandle(redis.Config{})
		require.NoError(t, h.Close())
		_, err := h.Client(context.Background())
		assert.ErrorIs(t, err, redis.ErrHandleClosed)
	})
}

func TestConnect(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://nope"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://" + addr,
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}
