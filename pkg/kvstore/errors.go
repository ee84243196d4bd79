package kvstore

import "errors"

var (
	// ErrNotFound is returned by Get for absent or expired keys.
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrUnavailable wraps failures to reach the backing store.
	ErrUnavailable = errors.New("kvstore: store unavailable")
	// ErrWrongType is returned when a key holds a different kind of value.
	ErrWrongType = errors.New("kvstore: operation against a key holding the wrong kind of value")
	ErrClosed    = errors.New("kvstore: store closed")
)
