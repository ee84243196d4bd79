package kvstore

import (
	"context"
	"time"
)

// Prefixed namespaces every key and channel of the wrapped store with prefix.
type Prefixed struct {
	next   Store
	prefix string
}

var _ Store = (*Prefixed)(nil)

// WithPrefix wraps s. An empty prefix returns s unchanged.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &Prefixed{next: s, prefix: prefix}
}

func (p *Prefixed) k(key string) string { return p.prefix + key }

func (p *Prefixed) ListRange(ctx context.Context, key string) ([]string, error) {
	return p.next.ListRange(ctx, p.k(key))
}

func (p *Prefixed) ListPush(ctx context.Context, key, value string) error {
	return p.next.ListPush(ctx, p.k(key), value)
}

func (p *Prefixed) ListRemove(ctx context.Context, key, value string) (int, error) {
	return p.next.ListRemove(ctx, p.k(key), value)
}

func (p *Prefixed) HashSet(ctx context.Context, key, field, value string) error {
	return p.next.HashSet(ctx, p.k(key), field, value)
}

func (p *Prefixed) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return p.next.HashGetAll(ctx, p.k(key))
}

func (p *Prefixed) HashDelete(ctx context.Context, key string, fields ...string) (int, error) {
	return p.next.HashDelete(ctx, p.k(key), fields...)
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.next.Get(ctx, p.k(key))
}

func (p *Prefixed) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.next.Set(ctx, p.k(key), value, ttl)
}

func (p *Prefixed) Incr(ctx context.Context, key string) (int64, error) {
	return p.next.Incr(ctx, p.k(key))
}

func (p *Prefixed) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return p.next.Expire(ctx, p.k(key), ttl)
}

func (p *Prefixed) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = p.k(key)
	}
	return p.next.Delete(ctx, full...)
}

func (p *Prefixed) Publish(ctx context.Context, channel, message string) error {
	return p.next.Publish(ctx, p.k(channel), message)
}

func (p *Prefixed) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	return p.next.Subscribe(ctx, p.k(channel))
}

func (p *Prefixed) Ping(ctx context.Context) error {
	return p.next.Ping(ctx)
}
