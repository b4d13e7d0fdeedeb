package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh category cache reads
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_hits_total",
			Help: "Total number of category cache hits",
		},
	)

	// CacheMisses tracks category cache misses by reason
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_misses_total",
			Help: "Total number of category cache misses",
		},
		[]string{"reason"}, // "absent", "expired"
	)

	// CacheEvictions tracks entries removed because they were stale or unreadable
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_evictions_total",
			Help: "Total number of evicted category cache entries",
		},
		[]string{"reason"}, // "expired", "corrupt"
	)

	// CacheSweeps tracks completed sweeps
	CacheSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_sweeps_total",
			Help: "Total number of category cache sweeps",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_errors_total",
			Help: "Total number of category cache operation errors",
		},
		[]string{"operation"}, // "set", "delete", "sweep"
	)
)
