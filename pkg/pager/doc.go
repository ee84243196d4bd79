// Package pager is the client side of the task-record search: it turns
// search input into query filters, tracks the current page and keeps the
// neighbouring pages warm.
//
// # State
//
// A Controller holds the current page, the raw search text, the selected
// filter field and the Filter derived from them. State returns a snapshot,
// and WithOnChange reports every transition.
//
// # Search
//
// Search input is debounced before it replaces the filter. Every filter
// change cancels queries issued for the previous filter (they fail with
// ErrSuperseded), clears all field filters, sets only the selected field
// or GlobalSearch, and resets the page to zero.
//
//	c := pager.NewController(pager.NewHTTPFetcher("http://localhost:8080"),
//	    pager.WithDebounce(300*time.Millisecond),
//	    pager.WithResultCache(64, time.Minute),
//	)
//	defer c.Close()
//
//	if err := c.SetSelectedFilter("status"); err != nil {
//	    return err // unknown field
//	}
//	c.SetSearch("done")
//	page, err := c.Load(ctx)
//
// # Navigation
//
// Next, Previous, First and Last only move the page and report whether
// they did; the caller decides when to Load. Next needs HasMore on the
// current page, Previous and First need a page above zero, and Last needs
// a known total.
//
//	for c.Next() {
//	    page, err := c.Load(ctx)
//	    ...
//	}
//
// # Prefetch
//
// After each Load the controller fetches the next two pages while HasMore
// holds and the last known page allows, and the two previous pages when
// the current page is above one. Neighbours computes that set. Results go
// to a local LRU; failures are logged at debug level and otherwise
// ignored. Wait blocks until running prefetches finish, which keeps tests
// deterministic.
//
// # Fetchers
//
// HTTPFetcher queries GET /tasks-records on a running server. FetcherFunc
// adapts a function, which is how tests and in-process callers plug in a
// taskrecords.Engine.
package pager
