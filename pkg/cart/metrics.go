package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CartMutations tracks cart operations by type
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		},
		[]string{"operation"}, // "add", "remove", "update", "adjust", "clear"
	)

	// CartReloads tracks reloads triggered by other processes
	CartReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_reloads_total",
			Help: "Total number of cart reloads from storage",
		},
	)

	// CartItems is the current item count of the cart
	CartItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_items",
			Help: "Current number of items in the cart",
		},
	)
)
