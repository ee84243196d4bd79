package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/auditoria/auditoria/pkg/cache"
	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

// ErrSuperseded is returned by Load when the filter changed while the
// query was in flight.
var ErrSuperseded = errors.New("pager: query superseded by a newer filter")

// State is the controller's view state.
type State struct {
	Page int
	// Search is the raw input, Filter reflects it once debounced.
	Search         string
	SelectedFilter string
	Filter         taskrecords.Filter
}

type queryKey struct {
	filter taskrecords.Filter
	page   int
}

// Controller drives paginated search: it debounces search input, binds it
// to the selected field, cancels queries made obsolete by a filter change
// and prefetches neighbouring pages into a local result cache.
type Controller struct {
	fetcher  Fetcher
	debounce time.Duration
	logger   *slog.Logger
	results  *cache.LRU[queryKey, taskrecords.Page]
	onChange func(State)

	mu        sync.Mutex
	state     State
	debounced string
	lastPage  int // -1 until a total is known
	timer     *time.Timer
	genCtx    context.Context
	genCancel context.CancelFunc

	prefetching sync.WaitGroup
}

type Option func(*Controller)

// WithDebounce sets the delay between the last search input and the
// filter update. Zero applies input immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithResultCache sizes the local page cache and bounds entry age.
func WithResultCache(size int, maxAge time.Duration) Option {
	return func(c *Controller) {
		if size > 0 {
			c.results = cache.New[queryKey, taskrecords.Page](size, cache.WithMaxAge(maxAge))
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnChange registers fn to run after every state change. fn runs
// without the controller lock held.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func NewController(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		debounce: 300 * time.Millisecond,
		logger:   slog.Default(),
		lastPage: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.results == nil {
		c.results = cache.New[queryKey, taskrecords.Page](64, cache.WithMaxAge(2*time.Minute))
	}
	c.logger = c.logger.With(logger.Component("pager"))
	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetSearch records raw input and schedules the debounced filter update.
func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	c.state.Search = search
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.debounce == 0 {
		c.timer = nil
		c.debounced = search
		c.refilterLocked()
		st := c.state
		c.mu.Unlock()
		c.notify(st)
		return
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.applySearch(search) })
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) applySearch(search string) {
	c.mu.Lock()
	if c.state.Search != search {
		// superseded by later input; its own timer will apply it
		c.mu.Unlock()
		return
	}
	c.debounced = search
	c.refilterLocked()
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

// SetSelectedFilter binds the debounced search to field, or to the global
// search when field is empty.
func (c *Controller) SetSelectedFilter(field string) error {
	if field != "" && !validField(field) {
		return fmt.Errorf("pager: unknown filter field %q", field)
	}
	c.mu.Lock()
	c.state.SelectedFilter = field
	c.refilterLocked()
	st := c.state
	c.mu.Unlock()
	c.notify(st)
	return nil
}

func validField(field string) bool {
	for _, f := range taskrecords.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// refilterLocked cancels queries of the previous filter, rebuilds the filter
// from the selected field and the debounced input and resets to page 0.
func (c *Controller) refilterLocked() {
	c.genCancel()
	c.genCtx, c.genCancel = context.WithCancel(context.Background())

	var f taskrecords.Filter
	if c.debounced != "" {
		f = taskrecords.SetField(c.state.SelectedFilter, c.debounced)
	}
	c.state.Filter = f
	c.state.Page = 0
	c.lastPage = -1
}

// Next advances one page when the current page reports more results.
func (c *Controller) Next() bool {
	return c.move(func(st State) (int, bool) {
		p, ok := c.results.Get(queryKey{filter: st.Filter, page: st.Page})
		return st.Page + 1, ok && p.HasMore && st.Page < taskrecords.MaxPage
	})
}

func (c *Controller) Previous() bool {
	return c.move(func(st State) (int, bool) {
		return st.Page - 1, st.Page > 0
	})
}

func (c *Controller) First() bool {
	return c.move(func(st State) (int, bool) {
		return 0, st.Page > 0
	})
}

// Last jumps to the last page known from the latest total.
func (c *Controller) Last() bool {
	return c.move(func(st State) (int, bool) {
		return c.lastPage, c.lastPage >= 0 && st.Page != c.lastPage
	})
}

func (c *Controller) move(next func(State) (int, bool)) bool {
	c.mu.Lock()
	page, ok := next(c.state)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.state.Page = page
	st := c.state
	c.mu.Unlock()
	c.notify(st)
	return true
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

// Load returns the current page, from the result cache when possible, and
// starts prefetching its neighbours.
func (c *Controller) Load(ctx context.Context) (taskrecords.Page, error) {
	c.mu.Lock()
	st := c.state
	gen := c.genCtx
	c.mu.Unlock()

	key := queryKey{filter: st.Filter, page: st.Page}
	p, ok := c.results.Get(key)
	if !ok {
		var err error
		p, err = c.fetch(ctx, gen, key)
		if err != nil {
			if gen.Err() != nil {
				return taskrecords.Page{}, ErrSuperseded
			}
			return taskrecords.Page{}, err
		}
	}

	c.mu.Lock()
	if gen == c.genCtx {
		c.lastPage = max(p.Total-1, 0) / taskrecords.PageSize
	}
	lastPage := c.lastPage
	c.mu.Unlock()

	c.prefetch(gen, key, p, lastPage)
	return p, nil
}

// fetch runs one query bound to both ctx and the filter generation.
func (c *Controller) fetch(ctx, gen context.Context, key queryKey) (taskrecords.Page, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(gen, cancel)
	defer stop()

	p, err := c.fetcher.Fetch(ctx, key.filter, key.page)
	if err != nil {
		return taskrecords.Page{}, err
	}
	if gen.Err() == nil {
		c.results.Put(key, p)
	}
	return p, nil
}

// Neighbours returns the pages to prefetch around page. Pages past
// taskrecords.MaxPage are never returned.
func Neighbours(page int, hasMore bool, lastPage int) []int {
	var pages []int
	if hasMore {
		for step := 1; step <= 2 && page <= taskrecords.MaxPage-step; step++ {
			if p := page + step; lastPage < 0 || p <= lastPage {
				pages = append(pages, p)
			}
		}
	}
	if page > 1 {
		pages = append(pages, page-1, page-2)
	}
	return pages
}

func (c *Controller) prefetch(gen context.Context, from queryKey, p taskrecords.Page, lastPage int) {
	pages := Neighbours(from.page, p.HasMore, lastPage)
	if len(pages) == 0 {
		return
	}

	c.prefetching.Add(1)
	go func() {
		defer c.prefetching.Done()

		var g errgroup.Group
		for _, page := range pages {
			key := queryKey{filter: from.filter, page: page}
			if _, ok := c.results.Get(key); ok {
				continue
			}
			g.Go(func() error {
				_, err := c.fetch(gen, gen, key)
				return err
			})
		}
		if err := g.Wait(); err != nil && gen.Err() == nil {
			c.logger.LogAttrs(gen, slog.LevelDebug, "prefetch failed", logger.Page(from.page), logger.Error(err))
		}
	}()
}

// Cached reports whether page of the current filter is in the result cache.
func (c *Controller) Cached(page int) bool {
	st := c.State()
	_, ok := c.results.Get(queryKey{filter: st.Filter, page: page})
	return ok
}

// Wait blocks until running prefetches finish.
func (c *Controller) Wait() {
	c.prefetching.Wait()
}

// Close stops the debounce timer and cancels outstanding queries.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.genCancel()
	c.mu.Unlock()
	c.Wait()
}
