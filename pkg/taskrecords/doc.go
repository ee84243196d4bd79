// Package taskrecords serves filtered, paginated views over the task-record
// dataset.
//
// # Architecture
//
//   - Entry and Scalar: the record model as the upstream source returns it
//   - Fetcher: loads the complete dataset (HTTPFetcher, FetcherFunc)
//   - Engine: cache-aside access to the dataset plus Query
//   - Apply and Match: pure filtering and pagination
//
// # Caching
//
// The full dataset is fetched from the upstream source and cached as one
// store value, {"data": [...]}, for a short TTL (two minutes by default).
// A cache read failure or a corrupt value counts as a miss. A cache write
// failure is logged and the fresh data is still served. Concurrent misses
// may each fetch the dataset; there is no single-flight lock.
//
//	fetcher := taskrecords.NewHTTPFetcher("https://tasks.internal/api/tasks",
//	    taskrecords.WithBearerToken(token),
//	)
//	engine := taskrecords.NewEngine(store, fetcher,
//	    taskrecords.WithCacheTTL(2*time.Minute),
//	    taskrecords.WithLogger(log),
//	)
//
//	page, err := engine.Query(ctx, taskrecords.Filter{Status: "done"}, 0)
//
// Invalidate drops the cached value so the next query refetches.
//
// # Filtering
//
// Field filters (uuid, file_name, status, user, campaign) are substring
// matches combined with AND, and they take precedence over GlobalSearch.
// Without field filters, GlobalSearch matches an entry when any of the
// five fields contains it, ignoring case. An empty Filter matches every
// entry:
//
//	taskrecords.Match(entries, taskrecords.Filter{User: "alice", Status: "done"})
//	taskrecords.Match(entries, taskrecords.Filter{GlobalSearch: "ALICE"})
//
// SetField builds the single-field filter a search box produces, falling
// back to GlobalSearch for an empty or unknown field name.
//
// # Pagination
//
// Pages are zero-based and hold PageSize entries. HasMore reports whether
// a later page exists and Total is the filtered count. Apply never fails;
// a page past the end is empty. ParsePage reads the raw query value and
// rejects anything that is not an integer in [0, MaxPage]:
//
//	page, err := taskrecords.ParsePage(r.URL.Query().Get("page"))
//	var pageErr *taskrecords.InvalidPageError
//	if errors.As(err, &pageErr) {
//	    // 400
//	}
//
// # Upstream errors
//
// HTTPFetcher accepts a bare JSON array or an object wrapping it under
// "data" or "tasks". A non-2xx answer becomes an UpstreamFetchError that
// carries the upstream "message" or "error" text when present.
//
// # Configuration
//
// Config reads TASKS_UPSTREAM_URL, TASKS_UPSTREAM_TOKEN,
// TASKS_UPSTREAM_TIMEOUT, TASKS_CACHE_KEY and TASKS_CACHE_TTL.
package taskrecords
