package taskrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/logger"
)

// DefaultCacheKey is the store key holding the cached dataset.
const DefaultCacheKey = "tasks-records"

type cachedDataset struct {
	Data []Entry `json:"data"`
}

// Engine answers filtered, paginated queries from a cached copy of the
// full dataset. Concurrent misses may each fetch and overwrite the cache.
type Engine struct {
	store   kvstore.Store
	fetcher Fetcher
	key     string
	ttl     time.Duration
	logger  *slog.Logger
}

type EngineOption func(*Engine)

func WithCacheKey(key string) EngineOption {
	return func(e *Engine) {
		if key != "" {
			e.key = key
		}
	}
}

func WithCacheTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(store kvstore.Store, fetcher Fetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		fetcher: fetcher,
		key:     DefaultCacheKey,
		ttl:     2 * time.Minute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("taskrecords"), logger.CacheKey(e.key))
	return e
}

// Query returns page of the entries matching f.
func (e *Engine) Query(ctx context.Context, f Filter, page int) (Page, error) {
	if page < 0 {
		return Page{}, &InvalidPageError{Value: fmt.Sprint(page)}
	}
	entries, err := e.Dataset(ctx)
	if err != nil {
		return Page{}, err
	}
	return Apply(entries, f, page), nil
}

// Dataset returns the cached dataset, fetching and caching it on a miss.
// Cache failures never fail the call; fetch failures do.
func (e *Engine) Dataset(ctx context.Context) ([]Entry, error) {
	if entries, ok := e.cached(ctx); ok {
		return entries, nil
	}

	start := time.Now()
	entries, err := e.fetcher.FetchAll(ctx)
	if err != nil {
		var upstream *UpstreamFetchError
		if !errors.As(err, &upstream) {
			err = &UpstreamFetchError{Err: err}
		}
		return nil, err
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "dataset fetched",
		slog.Int("entries", len(entries)), logger.Duration(time.Since(start)))

	if entries == nil {
		entries = []Entry{}
	}
	doc, err := json.Marshal(cachedDataset{Data: entries})
	if err == nil {
		err = e.store.Set(ctx, e.key, string(doc), e.ttl)
	}
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "cache write failed", logger.Error(err))
	}
	return entries, nil
}

func (e *Engine) cached(ctx context.Context) ([]Entry, bool) {
	raw, err := e.store.Get(ctx, e.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "cache read failed, treating as miss", logger.Error(err))
		}
		return nil, false
	}

	var ds cachedDataset
	if err := json.Unmarshal([]byte(raw), &ds); err != nil || ds.Data == nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "cache entry unreadable, treating as miss",
			logger.Error(errors.Join(ErrCacheCorrupt, err)))
		return nil, false
	}
	return ds.Data, true
}

// Invalidate drops the cached dataset so the next query refetches it.
func (e *Engine) Invalidate(ctx context.Context) error {
	return e.store.Delete(ctx, e.key)
}
