package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/auditoria/auditoria/pkg/kvstore"
)

// Storage persists notifications per target, most recent first.
type Storage interface {
	// Upsert inserts n at the head of target's list, replacing any stored
	// notification with the same uuid, and refreshes the list's TTL.
	Upsert(ctx context.Context, target Target, n Notification) error
	List(ctx context.Context, target Target) ([]Notification, error)
	// Delete reports whether a notification with id was removed.
	Delete(ctx context.Context, target Target, id string) (bool, error)
	// Purge drops every notification of target.
	Purge(ctx context.Context, target Target) error
}

// Storage strategy names accepted by NewStorage.
const (
	StorageList = "list"
	StorageHash = "hash"
)

// NewStorage builds the storage strategy named kind over store.
func NewStorage(kind string, store kvstore.Store, ttl time.Duration) (Storage, error) {
	switch kind {
	case StorageList:
		return NewListStorage(store, ttl), nil
	case StorageHash, "":
		return NewHashStorage(store, ttl), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, kind)
	}
}
