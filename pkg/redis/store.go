package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/auditoria/auditoria/pkg/kvstore"
)

// Store implements kvstore.Store on top of a Handle.
type Store struct {
	handle     *Handle
	bufferSize int
}

var _ kvstore.Store = (*Store)(nil)

func NewStore(h *Handle) *Store {
	size := h.cfg.SubscriptionBuffer
	if size <= 0 {
		size = 100
	}
	return &Store{handle: h, bufferSize: size}
}

// do runs fn with the shared client. Transport failures invalidate the
// client so the next call reconnects, and are reported as
// kvstore.ErrUnavailable. Server replies such as WRONGTYPE pass through.
func (s *Store) do(ctx context.Context, fn func(redis.UniversalClient) error) error {
	client, err := s.handle.Client(ctx)
	if err != nil {
		return errors.Join(kvstore.ErrUnavailable, err)
	}
	err = fn(client)
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		if redis.HasErrorPrefix(err, "WRONGTYPE") {
			return errors.Join(kvstore.ErrWrongType, err)
		}
		return err
	}
	if ctx.Err() == nil {
		s.handle.Invalidate(client)
	}
	return errors.Join(kvstore.ErrUnavailable, err)
}

func (s *Store) ListRange(ctx context.Context, key string) ([]string, error) {
	var out []string
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		out, err = c.LRange(ctx, key, 0, -1).Result()
		return err
	})
	return out, err
}

func (s *Store) ListPush(ctx context.Context, key, value string) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.LPush(ctx, key, value).Err()
	})
}

func (s *Store) ListRemove(ctx context.Context, key, value string) (int, error) {
	var n int64
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		n, err = c.LRem(ctx, key, 0, value).Result()
		return err
	})
	return int(n), err
}

func (s *Store) HashSet(ctx context.Context, key, field, value string) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.HSet(ctx, key, field, value).Err()
	})
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	var out map[string]string
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		out, err = c.HGetAll(ctx, key).Result()
		return err
	})
	return out, err
}

func (s *Store) HashDelete(ctx context.Context, key string, fields ...string) (int, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	var n int64
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		n, err = c.HDel(ctx, key, fields...).Result()
		return err
	})
	return int(n), err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var out string
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		out, err = c.Get(ctx, key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return "", kvstore.ErrNotFound
	}
	return out, err
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.Set(ctx, key, value, ttl).Err()
	})
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.do(ctx, func(c redis.UniversalClient) (err error) {
		n, err = c.Incr(ctx, key).Result()
		return err
	})
	return n, err
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.Expire(ctx, key, ttl).Err()
	})
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.Del(ctx, keys...).Err()
	})
}

func (s *Store) Publish(ctx context.Context, channel, message string) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.Publish(ctx, channel, message).Err()
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, func(c redis.UniversalClient) error {
		return c.Ping(ctx).Err()
	})
}

// Subscribe opens a dedicated pub/sub connection for channel and waits for
// the server to confirm the subscription before returning.
func (s *Store) Subscribe(ctx context.Context, channel string) (kvstore.Subscription, error) {
	var ps *redis.PubSub
	err := s.do(ctx, func(c redis.UniversalClient) error {
		ps = c.Subscribe(ctx, channel)
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &subscription{
		ps:   ps,
		out:  make(chan string, s.bufferSize),
		done: make(chan struct{}),
	}
	go sub.pump(ctx, s.bufferSize)
	return sub, nil
}

type subscription struct {
	ps   *redis.PubSub
	out  chan string
	done chan struct{}
	once sync.Once
}

func (s *subscription) Messages() <-chan string { return s.out }

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

// pump copies payloads from the go-redis channel until the subscription is
// closed or ctx ends. It owns s.out and closes it on exit.
func (s *subscription) pump(ctx context.Context, size int) {
	defer close(s.out)

	in := s.ps.Channel(redis.WithChannelSize(size))
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.out <- msg.Payload:
			case <-s.done:
				return
			case <-ctx.Done():
				_ = s.Close()
				return
			}
		}
	}
}
