package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageCorruption counts stored values that failed to decode.
	StorageCorruption = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_storage_corruption_total",
			Help: "Total number of stored values that could not be decoded",
		},
		[]string{"key"},
	)

	// StorageErrors counts backend failures by operation.
	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_storage_errors_total",
			Help: "Total number of storage backend errors",
		},
		[]string{"operation"}, // "get", "set", "remove", "exists", "scan"
	)
)
