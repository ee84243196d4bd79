package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// LRU is a bounded, concurrency-safe cache. The least recently used entry
// is evicted once capacity is exceeded, and entries older than the
// configured max age read as missing.
type LRU[K comparable, V any] struct {
	capacity int
	maxAge   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	items    map[K]*list.Element
	eviction *list.List
}

type Option func(*options)

type options struct {
	maxAge time.Duration
	now    func() time.Time
}

// WithMaxAge expires entries d after they were stored. Zero keeps entries
// until evicted.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.maxAge = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an LRU holding up to capacity entries. It panics when
// capacity is not positive.
func New[K comparable, V any](capacity int, opts ...Option) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &LRU[K, V]{
		capacity: capacity,
		maxAge:   o.maxAge,
		now:      o.now,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		c.remove(elem)
		var zero V
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put stores value under key, replacing and refreshing any previous entry.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.storedAt = c.now()
		c.eviction.MoveToFront(elem)
		return
	}

	c.items[key] = c.eviction.PushFront(&lruEntry[K, V]{key: key, value: value, storedAt: c.now()})
	if c.eviction.Len() > c.capacity {
		c.remove(c.eviction.Back())
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.remove(elem)
	}
	return ok
}

// Len counts stored entries, including expired ones not yet collected.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.eviction.Init()
}

// caller holds c.mu
func (c *LRU[K, V]) expired(e *lruEntry[K, V]) bool {
	return c.maxAge > 0 && c.now().Sub(e.storedAt) >= c.maxAge
}

// caller holds c.mu
func (c *LRU[K, V]) remove(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*lruEntry[K, V]).key)
}
