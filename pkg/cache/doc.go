// Package cache provides the per-category product cache.
//
// Each category listing is stored through the storage gateway under
// "products_<category>" as {"data": [...], "timestamp": <epoch ms>}. An entry
// is fresh while it is younger than the TTL (one hour by default).
//
// # Basic Usage
//
//	gw := storage.NewGateway(redisClient, logger)
//	manager := cache.NewManager(gw, cache.WithLogger(logger))
//
//	products, err := manager.Get(ctx, "makeup")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the product API, then
//		_ = manager.Set(ctx, "makeup", fetched)
//	}
//
// Get removes a stale entry when it sees one. Sweep removes every stale or
// unparsable entry in the namespace and is run when a category view is
// opened and periodically by the server.
//
// # Metrics
//
//   - storefront_cache_hits_total - Fresh reads
//   - storefront_cache_misses_total{reason} - Absent or expired reads
//   - storefront_cache_evictions_total{reason} - Removed entries
//   - storefront_cache_sweeps_total - Completed sweeps
//   - storefront_cache_errors_total{operation} - Write/delete failures
package cache
