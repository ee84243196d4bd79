package kvstore_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/kvstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_Lists(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemory()

	items, err := s.ListRange(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.ListPush(ctx, "l", "a"))
	require.NoError(t, s.ListPush(ctx, "l", "b"))
	require.NoError(t, s.ListPush(ctx, "l", "a"))

	items, err = s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, items)

	n, err := s.ListRemove(ctx, "l", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err = s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, items)

	n, err = s.ListRemove(ctx, "l", "zzz")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_Hashes(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemory()

	require.NoError(t, s.HashSet(ctx, "h", "f1", "v1"))
	require.NoError(t, s.HashSet(ctx, "h", "f2", "v2"))
	require.NoError(t, s.HashSet(ctx, "h", "f1", "v1b"))

	all, err := s.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1b", "f2": "v2"}, all)

	n, err := s.HashDelete(ctx, "h", "f1", "nope")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err = s.HashGetAll(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_WrongType(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemory()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	_, err := s.ListRange(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrWrongType)
	assert.ErrorIs(t, s.HashSet(ctx, "k", "f", "v"), kvstore.ErrWrongType)
}

func TestMemoryStore_StringsAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := kvstore.NewMemory(kvstore.WithClock(clock.Now))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", 2*time.Minute))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ttl, ok := s.TTL("k")
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, ttl)

	clock.Advance(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, s.ListPush(ctx, "l", "x"))
	require.NoError(t, s.Expire(ctx, "l", time.Hour))
	clock.Advance(59 * time.Minute)
	items, err := s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, items)

	require.NoError(t, s.Expire(ctx, "l", time.Hour))
	clock.Advance(59 * time.Minute)
	items, err = s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, items, "expire refresh extends lifetime")

	clock.Advance(time.Hour)
	items, err = s.ListRange(ctx, "l")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_Incr(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemory()

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "seq")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemory()
	require.NoError(t, s.Set(ctx, "a", "1", 0))
	require.NoError(t, s.ListPush(ctx, "b", "1"))
	require.NoError(t, s.Delete(ctx, "a", "b", "c"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	items, err := s.ListRange(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_PubSub(t *testing.T) {
	t.Run("delivers in publish order to active subscribers", func(t *testing.T) {
		ctx := context.Background()
		s := kvstore.NewMemory()

		require.NoError(t, s.Publish(ctx, "ch", "before"))

		sub, err := s.Subscribe(ctx, "ch")
		require.NoError(t, err)
		defer sub.Close()

		other, err := s.Subscribe(ctx, "other")
		require.NoError(t, err)
		defer other.Close()

		for _, m := range []string{"1", "2", "3"} {
			require.NoError(t, s.Publish(ctx, "ch", m))
		}

		for _, want := range []string{"1", "2", "3"} {
			select {
			case got := <-sub.Messages():
				assert.Equal(t, want, got)
			case <-time.After(time.Second):
				t.Fatal("message not delivered")
			}
		}
		assert.Empty(t, other.Messages())
	})

	t.Run("burst larger than the buffer is delivered in full", func(t *testing.T) {
		ctx := context.Background()
		s := kvstore.NewMemory(kvstore.WithSubscriberBuffer(4))
		sub, err := s.Subscribe(ctx, "ch")
		require.NoError(t, err)
		defer sub.Close()

		const n = 300
		published := make(chan error, 1)
		go func() {
			for i := range n {
				if err := s.Publish(ctx, "ch", strconv.Itoa(i)); err != nil {
					published <- err
					return
				}
			}
			published <- nil
		}()

		for i := range n {
			select {
			case got := <-sub.Messages():
				require.Equal(t, strconv.Itoa(i), got)
			case <-time.After(time.Second):
				t.Fatalf("message %d not delivered", i)
			}
		}
		require.NoError(t, <-published)
	})

	t.Run("full buffer waits for the publisher context", func(t *testing.T) {
		s := kvstore.NewMemory(kvstore.WithSubscriberBuffer(1))
		sub, err := s.Subscribe(context.Background(), "ch")
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, s.Publish(context.Background(), "ch", "kept"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Publish(ctx, "ch", "late"), context.DeadlineExceeded)
		assert.Equal(t, "kept", <-sub.Messages())
	})

	t.Run("closing a subscription releases a blocked publisher", func(t *testing.T) {
		ctx := context.Background()
		s := kvstore.NewMemory(kvstore.WithSubscriberBuffer(1))
		sub, err := s.Subscribe(ctx, "ch")
		require.NoError(t, err)
		require.NoError(t, s.Publish(ctx, "ch", "fills"))

		published := make(chan error, 1)
		go func() { published <- s.Publish(ctx, "ch", "blocked") }()

		require.NoError(t, sub.Close())
		select {
		case err := <-published:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("publisher still blocked")
		}
	})

	t.Run("context cancel closes subscription", func(t *testing.T) {
		s := kvstore.NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := s.Subscribe(ctx, "ch")
		require.NoError(t, err)
		assert.Equal(t, 1, s.Subscribers("ch"))

		cancel()
		assert.Eventually(t, func() bool { return s.Subscribers("ch") == 0 }, time.Second, 5*time.Millisecond)
		_, open := <-sub.Messages()
		assert.False(t, open)
		assert.NoError(t, sub.Close())
	})

	t.Run("closed store", func(t *testing.T) {
		ctx := context.Background()
		s := kvstore.NewMemory()
		sub, err := s.Subscribe(ctx, "ch")
		require.NoError(t, err)

		require.NoError(t, s.Close())
		_, open := <-sub.Messages()
		assert.False(t, open)

		_, err = s.Subscribe(ctx, "ch")
		assert.ErrorIs(t, err, kvstore.ErrClosed)
		assert.ErrorIs(t, s.Publish(ctx, "ch", "x"), kvstore.ErrClosed)
		assert.ErrorIs(t, s.Ping(ctx), kvstore.ErrClosed)
	})
}
