package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auditoria/auditoria/pkg/kvstore"
)

// ListStorage keeps each target in a single list of JSON documents.
// Replace-by-uuid is a read, a remove and a push; two concurrent upserts of
// the same uuid can both miss each other and leave a duplicate.
type ListStorage struct {
	store kvstore.Store
	ttl   time.Duration
}

func NewListStorage(store kvstore.Store, ttl time.Duration) *ListStorage {
	return &ListStorage{store: store, ttl: ttl}
}

func (s *ListStorage) Upsert(ctx context.Context, target Target, n Notification) error {
	key := target.ListKey()

	raw, err := s.find(ctx, key, n.UUID)
	if err != nil {
		return err
	}
	if raw != "" {
		if _, err := s.store.ListRemove(ctx, key, raw); err != nil {
			return fmt.Errorf("remove previous %s: %w", n.UUID, err)
		}
	}

	doc, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, key, string(doc)); err != nil {
		return fmt.Errorf("push %s: %w", n.UUID, err)
	}
	if s.ttl > 0 {
		if err := s.store.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}

func (s *ListStorage) List(ctx context.Context, target Target) ([]Notification, error) {
	items, err := s.store.ListRange(ctx, target.ListKey())
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *ListStorage) Delete(ctx context.Context, target Target, id string) (bool, error) {
	key := target.ListKey()
	raw, err := s.find(ctx, key, id)
	if err != nil || raw == "" {
		return false, err
	}
	removed, err := s.store.ListRemove(ctx, key, raw)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *ListStorage) Purge(ctx context.Context, target Target) error {
	return s.store.Delete(ctx, target.ListKey())
}

// find returns the raw stored document for id, or "" when absent.
func (s *ListStorage) find(ctx context.Context, key, id string) (string, error) {
	items, err := s.store.ListRange(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	for _, item := range items {
		var n Notification
		if json.Unmarshal([]byte(item), &n) == nil && n.UUID == id {
			return item, nil
		}
	}
	return "", nil
}
