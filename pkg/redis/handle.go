package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DialFunc opens a ready client.
type DialFunc func(ctx context.Context, cfg Config) (redis.UniversalClient, error)

// Handle owns the process-wide Redis client. The client is created on first
// use and reused afterwards; after Invalidate the next caller dials again.
type Handle struct {
	cfg  Config
	dial DialFunc

	mu     sync.Mutex
	client redis.UniversalClient
	closed bool
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithDialer replaces Connect, mostly for tests.
func WithDialer(dial DialFunc) HandleOption {
	return func(h *Handle) {
		if dial != nil {
			h.dial = dial
		}
	}
}

// WithClient seeds the handle with an existing client.
func WithClient(client redis.UniversalClient) HandleOption {
	return func(h *Handle) { h.client = client }
}

func NewHandle(cfg Config, opts ...HandleOption) *Handle {
	h := &Handle{
		cfg: cfg,
		dial: func(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
			return Connect(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Client returns the shared client, connecting if there is none.
// Concurrent callers wait for a single dial.
func (h *Handle) Client(ctx context.Context) (redis.UniversalClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHandleClosed
	}
	if h.client != nil {
		return h.client, nil
	}
	client, err := h.dial(ctx, h.cfg)
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Invalidate drops client if it is still the current one. Callers report a
// client they saw fail; a client already replaced by a reconnect is ignored.
func (h *Handle) Invalidate(client redis.UniversalClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client == nil || h.client != client {
		return
	}
	_ = h.client.Close()
	h.client = nil
}

// Close closes the current client. Further calls to Client fail.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
