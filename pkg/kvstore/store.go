package kvstore

import (
	"context"
	"time"
)

// Store is the key-value contract the notification pipeline and the search
// cache are written against. Lists are ordered head first. A missing key
// behaves as an empty list or hash.
type Store interface {
	// ListRange returns every element of the list at key, head first.
	ListRange(ctx context.Context, key string) ([]string, error)
	// ListPush inserts value at the head of the list.
	ListPush(ctx context.Context, key, value string) error
	// ListRemove removes every element equal to value and reports how many were removed.
	ListRemove(ctx context.Context, key, value string) (int, error)

	// HashSet sets field to value, replacing any previous value.
	HashSet(ctx context.Context, key, field, value string) error
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	// HashDelete removes fields and reports how many existed.
	HashDelete(ctx context.Context, key string, fields ...string) (int, error)

	// Get returns ErrNotFound when key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; a zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr atomically increments the integer at key, starting from zero.
	Incr(ctx context.Context, key string) (int64, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Publish delivers message to current subscribers of channel.
	// Subscribers that join later never see it.
	Publish(ctx context.Context, channel, message string) error
	// Subscribe opens a dedicated subscription. It returns once the
	// subscription is active, so a publish issued after Subscribe returns
	// is delivered.
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	Ping(ctx context.Context) error
}

// Subscription is a single channel subscription. Messages is closed after
// Close, or when the context given to Subscribe is done.
type Subscription interface {
	Messages() <-chan string
	Close() error
}
