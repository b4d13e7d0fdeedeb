// Package browse implements the category listing pipeline: cache-first
// loading of a category's products and the per-view state machine that
// groups, filters, sorts and pages them.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/beauty-storefront/pkg/cache"
	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	categoryLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_category_loads_total",
		Help: "Total category loads by source and result",
	}, []string{"source", "result"})

	categoryFetchesShared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_category_fetches_shared_total",
		Help: "Total category loads served by an already running fetch",
	})
)

// Source tells where loaded products came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// Fetcher retrieves a category's full product list from the product API.
type Fetcher interface {
	Category(ctx context.Context, category string) ([]catalog.Product, error)
}

// Loader loads categories cache-first and de-duplicates concurrent fetches of
// the same category.
type Loader struct {
	cache   *cache.Manager
	fetcher Fetcher
	group   singleflight.Group
	logger  zerolog.Logger

	fetches atomic.Int64
}

// NewLoader creates a loader.
func NewLoader(cacheManager *cache.Manager, fetcher Fetcher, logger zerolog.Logger) *Loader {
	if cacheManager == nil || fetcher == nil {
		panic("cache manager and fetcher are required")
	}
	return &Loader{
		cache:   cacheManager,
		fetcher: fetcher,
		logger:  logger.With().Str("component", logging.ComponentLoader).Logger(),
	}
}

// Load returns the products of category. A fresh cache entry is used as is;
// otherwise the API is queried and the result written through to the cache.
//
// Cancelling ctx returns immediately; a fetch shared with other callers keeps
// running for them.
func (l *Loader) Load(ctx context.Context, category string) ([]catalog.Product, Source, error) {
	key := catalog.NormalizeCategory(category)
	if key == "" {
		return nil, "", fmt.Errorf("category is required")
	}

	products, err := l.cache.Get(ctx, key)
	if err == nil {
		categoryLoadsTotal.WithLabelValues(string(SourceCache), "ok").Inc()
		l.logger.Debug().Str("category", key).Int("products", len(products)).Msg("Category cache hit")
		return products, SourceCache, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.logger.Warn().Err(err).Str("category", key).Msg("Category cache read failed")
	}

	ch := l.group.DoChan(key, func() (any, error) {
		return l.fetch(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			categoryFetchesShared.Inc()
		}
		if res.Err != nil {
			categoryLoadsTotal.WithLabelValues(string(SourceNetwork), "error").Inc()
			return nil, "", res.Err
		}
		categoryLoadsTotal.WithLabelValues(string(SourceNetwork), "ok").Inc()
		shared := res.Val.([]catalog.Product)
		return append([]catalog.Product{}, shared...), SourceNetwork, nil
	}
}

// fetch queries the API and writes the result through to the cache.
func (l *Loader) fetch(ctx context.Context, category string) ([]catalog.Product, error) {
	l.fetches.Add(1)

	products, err := l.fetcher.Category(ctx, category)
	if err != nil {
		l.logger.Error().Err(err).Str("category", category).Msg("Category fetch failed")
		return nil, fmt.Errorf("load category %q: %w", category, err)
	}
	if products == nil {
		products = []catalog.Product{}
	}

	if err := l.cache.Set(ctx, category, products); err != nil {
		l.logger.Warn().Err(err).Str("category", category).Msg("Failed to cache category")
	}

	l.logger.Info().Str("category", category).Int("products", len(products)).Msg("Category loaded")
	return products, nil
}

// Fetches returns how many API fetches the loader started.
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

// Sweep removes stale category cache entries.
func (l *Loader) Sweep(ctx context.Context) (int, error) {
	return l.cache.Sweep(ctx)
}

// Warm loads every category with at most concurrency loads in flight. It
// attempts all categories and returns the joined failures.
func (l *Loader) Warm(ctx context.Context, categories []string, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, category := range categories {
		category := category
		g.Go(func() error {
			if _, _, err := l.Load(gctx, category); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if len(errs) > 0 {
		l.logger.Warn().Int("failed", len(errs)).Int("total", len(categories)).Msg("Cache warm-up incomplete")
		return errors.Join(errs...)
	}

	l.logger.Info().Int("categories", len(categories)).Msg("Cache warm-up completed")
	return nil
}
