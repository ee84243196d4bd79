package kvstore

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"
)

type entryKind int

const (
	kindString entryKind = iota + 1
	kindList
	kindHash
)

type entry struct {
	kind      entryKind
	str       string
	list      []string
	hash      map[string]string
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, letting tests move time forward to exercise expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSubscriberBuffer sets the per-subscription buffer size.
func WithSubscriberBuffer(n int) MemoryOption {
	return func(m *MemoryStore) {
		if n > 0 {
			m.bufferSize = n
		}
	}
}

// MemoryStore is a process-local Store. Expired keys are evicted lazily on access.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time

	subMu      sync.RWMutex
	subs       map[string]map[*memorySubscription]struct{}
	bufferSize int
	closed     bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		data:       make(map[string]*entry),
		now:        time.Now,
		subs:       make(map[string]map[*memorySubscription]struct{}),
		bufferSize: 256,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the live entry for key, evicting it if expired. Caller holds mu.
func (m *MemoryStore) lookup(key string, kind entryKind) (*entry, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return nil, nil
	}
	if e.kind != kind {
		return nil, ErrWrongType
	}
	return e, nil
}

func (m *MemoryStore) ListRange(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindList)
	if err != nil || e == nil {
		return nil, err
	}
	return slices.Clone(e.list), nil
}

func (m *MemoryStore) ListPush(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindList)
	if err != nil {
		return err
	}
	if e == nil {
		e = &entry{kind: kindList}
		m.data[key] = e
	}
	e.list = slices.Insert(e.list, 0, value)
	return nil
}

func (m *MemoryStore) ListRemove(ctx context.Context, key, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindList)
	if err != nil || e == nil {
		return 0, err
	}
	before := len(e.list)
	e.list = slices.DeleteFunc(e.list, func(v string) bool { return v == value })
	removed := before - len(e.list)
	if len(e.list) == 0 {
		delete(m.data, key)
	}
	return removed, nil
}

func (m *MemoryStore) HashSet(ctx context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindHash)
	if err != nil {
		return err
	}
	if e == nil {
		e = &entry{kind: kindHash, hash: make(map[string]string)}
		m.data[key] = e
	}
	e.hash[field] = value
	return nil
}

func (m *MemoryStore) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string)
	e, err := m.lookup(key, kindHash)
	if err != nil {
		return nil, err
	}
	if e != nil {
		for k, v := range e.hash {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStore) HashDelete(ctx context.Context, key string, fields ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindHash)
	if err != nil || e == nil {
		return 0, err
	}
	n := 0
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			n++
		}
	}
	if len(e.hash) == 0 {
		delete(m.data, key)
	}
	return n, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindString)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", ErrNotFound
	}
	return e.str, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{kind: kindString, str: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(key, kindString)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = &entry{kind: kindString, str: "0"}
		m.data[key] = e
	}
	n, err := strconv.ParseInt(e.str, 10, 64)
	if err != nil {
		return 0, ErrWrongType
	}
	n++
	e.str = strconv.FormatInt(n, 10)
	return n, nil
}

// Expire sets a TTL on an existing key. Missing keys are left alone and a
// non-positive ttl deletes the key, as Redis does.
func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if ttl <= 0 {
		delete(m.data, key)
		return nil
	}
	e.expiresAt = m.now().Add(ttl)
	return nil
}

// TTL reports the remaining lifetime of key. It returns false when the key
// does not exist or has no expiry.
func (m *MemoryStore) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expiresAt.IsZero() {
		return 0, false
	}
	left := e.expiresAt.Sub(m.now())
	if left <= 0 {
		delete(m.data, key)
		return 0, false
	}
	return left, true
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return ctx.Err()
}
