package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/auditoria/auditoria/pkg/kvstore"
)

// HashStorage keeps each target in a hash keyed by uuid. Upsert is a single
// field write, so redelivering a uuid concurrently never duplicates it.
// Entries carry an ingestion sequence used to order reads newest first.
type HashStorage struct {
	store kvstore.Store
	ttl   time.Duration
}

type envelope struct {
	Seq          int64        `json:"seq"`
	Notification Notification `json:"notification"`
}

func NewHashStorage(store kvstore.Store, ttl time.Duration) *HashStorage {
	return &HashStorage{store: store, ttl: ttl}
}

// seqKey lives outside the "notifications:" namespace so no recipient id
// can address it.
func seqKey(target Target) string { return "notifications-seq:" + target.Key() }

func (s *HashStorage) Upsert(ctx context.Context, target Target, n Notification) error {
	key := target.ListKey()

	seq, err := s.store.Incr(ctx, seqKey(target))
	if err != nil {
		return fmt.Errorf("next sequence for %s: %w", key, err)
	}
	doc, err := json.Marshal(envelope{Seq: seq, Notification: n})
	if err != nil {
		return err
	}
	if err := s.store.HashSet(ctx, key, n.UUID, string(doc)); err != nil {
		return fmt.Errorf("store %s: %w", n.UUID, err)
	}
	if s.ttl > 0 {
		for _, k := range []string{key, seqKey(target)} {
			if err := s.store.Expire(ctx, k, s.ttl); err != nil {
				return fmt.Errorf("expire %s: %w", k, err)
			}
		}
	}
	return nil
}

func (s *HashStorage) List(ctx context.Context, target Target) ([]Notification, error) {
	fields, err := s.store.HashGetAll(ctx, target.ListKey())
	if err != nil {
		return nil, err
	}

	envs := make([]envelope, 0, len(fields))
	for _, raw := range fields {
		var e envelope
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		envs = append(envs, e)
	}
	slices.SortFunc(envs, func(a, b envelope) int {
		switch {
		case a.Seq > b.Seq:
			return -1
		case a.Seq < b.Seq:
			return 1
		}
		return 0
	})

	out := make([]Notification, len(envs))
	for i, e := range envs {
		out[i] = e.Notification
	}
	return out, nil
}

func (s *HashStorage) Delete(ctx context.Context, target Target, id string) (bool, error) {
	n, err := s.store.HashDelete(ctx, target.ListKey(), id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *HashStorage) Purge(ctx context.Context, target Target) error {
	return s.store.Delete(ctx, target.ListKey(), seqKey(target))
}
