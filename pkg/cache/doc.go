// Package cache provides a generic in-process LRU with optional entry
// expiry.
//
//	results := cache.New[string, taskrecords.Page](64, cache.WithMaxAge(2*time.Minute))
//	results.Put(key, page)
//	if page, ok := results.Get(key); ok {
//		// fresh hit
//	}
//
// Expired entries are dropped lazily when read.
package cache
