// Package kvstore defines the key-value and pub/sub contract used by the
// notification pipeline and the task-records cache, plus an in-memory
// implementation for tests and single-process development.
//
// The production implementation lives in pkg/redis.
//
// Memory pub/sub mirrors Redis semantics closely enough for tests: messages
// go only to subscribers active at publish time, each subscription has its
// own buffer, and a subscriber whose buffer is full loses the message
// instead of blocking the publisher.
package kvstore
