package cache

import (
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
)

// Entry is a cached category listing.
type Entry struct {
	// Data is the product list as fetched from the API
	Data []catalog.Product `json:"data"`

	// Timestamp is when the entry was written, in milliseconds since the epoch
	Timestamp int64 `json:"timestamp"`
}

// NewEntry creates an entry stamped with now.
func NewEntry(products []catalog.Product, now time.Time) Entry {
	if products == nil {
		products = []catalog.Product{}
	}
	return Entry{Data: products, Timestamp: now.UnixMilli()}
}

// CachedAt returns the write time of the entry.
func (e Entry) CachedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Age returns how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt())
}

// IsExpired reports whether the entry is at least ttl old.
func (e Entry) IsExpired(now time.Time, ttl time.Duration) bool {
	return e.Age(now) >= ttl
}
