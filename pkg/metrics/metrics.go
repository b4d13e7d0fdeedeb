// Package metrics provides the Prometheus registry and exposition handler for
// the storefront. All metrics are defined in their respective packages
// (storage, cache, cart, browse, events, client) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the storefront.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Storage Metrics (pkg/storage):
//   - storefront_storage_corruption_total{key} (Counter): Stored values that could not be decoded
//   - storefront_storage_errors_total{operation} (Counter): Storage backend errors
//
// Cache Metrics (pkg/cache):
//   - storefront_cache_hits_total (Counter): Fresh category cache hits
//   - storefront_cache_misses_total{reason} (Counter): Misses by reason (absent, expired)
//   - storefront_cache_evictions_total{reason} (Counter): Entries removed by reason
//   - storefront_cache_sweeps_total (Counter): Completed stale-entry sweeps
//   - storefront_cache_errors_total{operation} (Counter): Cache operation errors
//
// Cart Metrics (pkg/cart):
//   - storefront_cart_mutations_total{operation} (Counter): Cart mutations (add, remove, update, adjust, clear)
//   - storefront_cart_reloads_total (Counter): Reloads from storage after remote changes
//   - storefront_cart_items (Gauge): Current sum of cart quantities
//
// Category Metrics (pkg/browse):
//   - storefront_category_loads_total{source, result} (Counter): Category loads by source and result
//   - storefront_category_fetches_shared_total (Counter): Loads served by an already running fetch
//
// Event Metrics (pkg/events):
//   - storefront_events_delivered_total{transport} (Counter): Events delivered to subscribers
//   - storefront_events_dropped_total{transport} (Counter): Events dropped on a full subscriber queue
//
// Request Metrics (pkg/client):
//   - storefront_api_requests_total{endpoint, status} (Counter): Product API requests
//   - storefront_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - storefront_api_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - storefront_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - storefront_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - storefront_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//	# Category Cache Hit Rate
//	sum(rate(storefront_cache_hits_total[5m])) /
//	(sum(rate(storefront_cache_hits_total[5m])) + sum(rate(storefront_cache_misses_total[5m])))
//
//	# Expired vs. corrupt misses
//	sum by (reason) (rate(storefront_cache_misses_total[5m]))
//
//	# API Error Rate
//	rate(storefront_api_errors_total[5m])
//
//	# P95 API Latency
//	histogram_quantile(0.95, rate(storefront_api_request_duration_seconds_bucket[5m]))
//
//	# Shared fetch ratio
//	rate(storefront_category_fetches_shared_total[5m]) / sum(rate(storefront_category_loads_total{source="network"}[5m]))
