package kvstore

import (
	"context"
	"fmt"
	"sync"
)

type memorySubscription struct {
	store   *MemoryStore
	channel string
	ch      chan string
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	closed  bool
	sending sync.WaitGroup
}

func (s *memorySubscription) Messages() <-chan string {
	return s.ch
}

// Close unblocks pending senders before closing the message channel.
func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.store.unsubscribe(s)
		close(s.done)

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.sending.Wait()
		close(s.ch)
	})
	return nil
}

// send waits for buffer space until the subscription closes or ctx ends.
func (s *memorySubscription) send(ctx context.Context, msg string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.sending.Add(1)
	s.mu.Unlock()
	defer s.sending.Done()

	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a subscription on channel. The subscription is
// closed automatically when ctx is done.
func (m *MemoryStore) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memorySubscription{
		store:   m,
		channel: channel,
		ch:      make(chan string, m.bufferSize),
		done:    make(chan struct{}),
	}

	m.subMu.Lock()
	if m.closed {
		m.subMu.Unlock()
		return nil, ErrClosed
	}
	set, ok := m.subs[channel]
	if !ok {
		set = make(map[*memorySubscription]struct{})
		m.subs[channel] = set
	}
	set[sub] = struct{}{}
	m.subMu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

func (m *MemoryStore) unsubscribe(sub *memorySubscription) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if set, ok := m.subs[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(m.subs, sub.channel)
		}
	}
}

// Publish hands message to every subscriber of channel. A subscriber with a
// full buffer makes Publish wait, so nothing is dropped while ctx is live.
func (m *MemoryStore) Publish(ctx context.Context, channel, message string) error {
	m.subMu.RLock()
	if m.closed {
		m.subMu.RUnlock()
		return ErrClosed
	}
	subs := make([]*memorySubscription, 0, len(m.subs[channel]))
	for sub := range m.subs[channel] {
		subs = append(subs, sub)
	}
	m.subMu.RUnlock()

	for _, sub := range subs {
		if err := sub.send(ctx, message); err != nil {
			return fmt.Errorf("publish to %s: %w", channel, err)
		}
	}
	return nil
}

// Subscribers reports the number of active subscriptions on channel.
func (m *MemoryStore) Subscribers(channel string) int {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subs[channel])
}

// Close ends every subscription. Further publishes and subscribes fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.subMu.Lock()
	if m.closed {
		m.subMu.Unlock()
		return nil
	}
	m.closed = true
	var all []*memorySubscription
	for _, set := range m.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	m.subMu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}
