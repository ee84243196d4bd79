package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)}
}

func TestNewWindowValidation(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemory()
	_, err := ratelimiter.NewWindow(store, 0, time.Minute)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	_, err = ratelimiter.NewWindow(store, 5, time.Millisecond)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestWindowAllow(t *testing.T) {
	t.Parallel()

	clk := newClock()
	store := kvstore.NewMemory(kvstore.WithClock(clk.Now))
	w, err := ratelimiter.NewWindow(store, 3, time.Minute, ratelimiter.WithClock(clk.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 3 {
		res, err := w.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), res.ResetAt)
	}

	res, err := w.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, 50*time.Second, res.RetryAfter(clk.Now()))

	other, err := w.Allow(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed(), "keys are independent")

	ttl, ok := store.TTL("ratelimit:198.51.100.1:" + "1772366400")
	require.True(t, ok)
	assert.Equal(t, time.Minute, ttl)

	clk.Advance(50 * time.Second)
	res, err = w.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed(), "new window starts a new budget")
	assert.Equal(t, 2, res.Remaining)
}

func TestWindowAllowN(t *testing.T) {
	t.Parallel()

	w, err := ratelimiter.NewWindow(kvstore.NewMemory(), 5, time.Minute)
	require.NoError(t, err)

	_, err = w.AllowN(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	res, err := w.AllowN(context.Background(), "k", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining)

	res, err = w.AllowN(context.Background(), "k", 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed())
}

func TestComposite(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	empty := ratelimiter.KeyFunc(func(*http.Request) string { return "" })

	assert.Equal(t, "", ratelimiter.Composite(empty)(r))
	assert.Equal(t, "a:b", ratelimiter.Composite(ratelimiter.Static("a"), empty, ratelimiter.Static("b"))(r))

	long := ratelimiter.Composite(ratelimiter.Static(strings.Repeat("x", 80)))(r)
	assert.LessOrEqual(t, len(long), 13)
	assert.Equal(t, long, ratelimiter.Composite(ratelimiter.Static(strings.Repeat("x", 80)))(r), "hashing is stable")
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("store down")
}

func (failingCounter) Expire(context.Context, string, time.Duration) error { return nil }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Client") }

	t.Run("limits per key", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		w, err := ratelimiter.NewWindow(kvstore.NewMemory(kvstore.WithClock(clk.Now)), 2, time.Minute, ratelimiter.WithClock(clk.Now))
		require.NoError(t, err)
		h := ratelimiter.Middleware(w, byHeader, ratelimiter.WithLogger(logger.Discard()))(ok)

		do := func(client string) *httptest.ResponseRecorder {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.Header.Set("X-Client", client)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			return rec
		}

		rec := do("a")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

		assert.Equal(t, http.StatusNoContent, do("a").Code)

		rec = do("a")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "50", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())

		assert.Equal(t, http.StatusNoContent, do("b").Code)
		assert.Equal(t, http.StatusNoContent, do("").Code, "empty key is not limited")
	})

	t.Run("fails open", func(t *testing.T) {
		t.Parallel()
		w, err := ratelimiter.NewWindow(failingCounter{}, 1, time.Minute)
		require.NoError(t, err)
		h := ratelimiter.Middleware(w, ratelimiter.Static("all"), ratelimiter.WithLogger(logger.Discard()))(ok)

		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
	})
}
