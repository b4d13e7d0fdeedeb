package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/Sternrassler/beauty-storefront/pkg/storage"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a category listing stays fresh.
const DefaultTTL = time.Hour

// ErrCacheMiss indicates the category has no fresh entry.
var ErrCacheMiss = errors.New("cache miss")

// Manager reads and writes category listings through the storage gateway.
type Manager struct {
	store  *storage.Gateway
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger.With().Str("component", logging.ComponentCache).Logger()
	}
}

// NewManager creates a cache manager backed by store.
func NewManager(store *storage.Gateway, opts ...Option) *Manager {
	if store == nil {
		panic("storage gateway cannot be nil")
	}
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the freshness window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the cached products of category.
// Returns ErrCacheMiss if there is no readable entry or it is stale; stale
// entries are removed on the way.
func (m *Manager) Get(ctx context.Context, category string) ([]catalog.Product, error) {
	key := Key(category)

	entry, ok := storage.Get[Entry](ctx, m.store, key)
	if !ok {
		CacheMisses.WithLabelValues("absent").Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired(m.now(), m.ttl) {
		if err := m.store.Remove(ctx, key); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove stale entry")
		} else {
			CacheEvictions.WithLabelValues("expired").Inc()
		}
		CacheMisses.WithLabelValues("expired").Inc()
		m.logger.Debug().
			Str("key", key).
			Dur("age", entry.Age(m.now())).
			Msg("Cache entry expired")
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	if entry.Data == nil {
		return []catalog.Product{}, nil
	}
	return entry.Data, nil
}

// Set stores products for category stamped with the current time.
func (m *Manager) Set(ctx context.Context, category string, products []catalog.Product) error {
	key := Key(category)

	if err := m.store.Set(ctx, key, NewEntry(products, m.now())); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("cache set %q: %w", key, err)
	}

	m.logger.Debug().Str("key", key).Int("products", len(products)).Msg("Cached category")
	return nil
}

// Delete removes the entry of category.
func (m *Manager) Delete(ctx context.Context, category string) error {
	if err := m.store.Remove(ctx, Key(category)); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Sweep removes every stale or unreadable category entry and returns how many
// were removed. Fresh entries and keys outside the cache namespace are left
// untouched.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	keys, err := m.store.Keys(ctx, KeyPrefix)
	if err != nil {
		CacheErrors.WithLabelValues("sweep").Inc()
		return 0, fmt.Errorf("cache sweep: %w", err)
	}

	now := m.now()
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		reason := ""
		entry, ok := storage.Get[Entry](ctx, m.store, key)
		switch {
		case !ok:
			reason = "corrupt"
		case entry.IsExpired(now, m.ttl):
			reason = "expired"
		default:
			continue
		}

		if err := m.store.Remove(ctx, key); err != nil {
			CacheErrors.WithLabelValues("sweep").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove entry during sweep")
			continue
		}
		CacheEvictions.WithLabelValues(reason).Inc()
		removed++
	}

	CacheSweeps.Inc()
	if removed > 0 {
		m.logger.Info().Int("removed", removed).Int("scanned", len(keys)).Msg("Cache sweep completed")
	}
	return removed, nil
}
