package ratelimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Counter is the slice of the key-value store the limiter needs. Both the
// memory and the Redis stores satisfy it, so limits are shared across
// server instances when Redis backs them.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Result is the outcome of one check.
type Result struct {
	Limit     int
	Remaining int // negative once the limit is exceeded
	ResetAt   time.Time
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is zero for allowed requests.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Window is a fixed-window limiter: at most Limit hits per key in each
// window, counted in the store.
type Window struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
	now     func() time.Time
}

type Option func(*Window)

// WithKeyPrefix namespaces counter keys. Defaults to "ratelimit:".
func WithKeyPrefix(prefix string) Option {
	return func(w *Window) { w.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(w *Window) {
		if now != nil {
			w.now = now
		}
	}
}

func NewWindow(counter Counter, limit int, window time.Duration, opts ...Option) (*Window, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, limit)
	}
	if window < time.Second {
		return nil, fmt.Errorf("%w: window must be at least 1s, got %v", ErrInvalidConfig, window)
	}
	w := &Window{
		counter: counter,
		limit:   limit,
		window:  window,
		prefix:  "ratelimit:",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Window) Allow(ctx context.Context, key string) (Result, error) {
	return w.AllowN(ctx, key, 1)
}

// AllowN records n hits for key in the current window.
func (w *Window) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}

	start := w.now().Truncate(w.window)
	counterKey := w.prefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var count int64
	for range n {
		c, err := w.counter.Incr(ctx, counterKey)
		if err != nil {
			return Result{}, err
		}
		count = c
	}
	if count == int64(n) {
		// first hits of this window own the expiry
		if err := w.counter.Expire(ctx, counterKey, w.window); err != nil {
			return Result{}, err
		}
	}

	return Result{
		Limit:     w.limit,
		Remaining: w.limit - int(count),
		ResetAt:   start.Add(w.window),
	}, nil
}
