package cache

import (
	"strings"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
)

// KeyPrefix is shared by every category cache key.
const KeyPrefix = "products_"

// Key returns the storage key for a category: KeyPrefix followed by the
// trimmed, lower-cased category name.
//
// Example:
//
//	Key(" Makeup ") == "products_makeup"
func Key(category string) string {
	return KeyPrefix + catalog.NormalizeCategory(category)
}

// CategoryFromKey is the inverse of Key. It reports false for keys outside
// the cache namespace.
func CategoryFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}
