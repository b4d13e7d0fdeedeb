package catalog

import "sort"

// SortOrder selects how a product listing is ordered.
type SortOrder string

const (
	// SortDefault keeps the API order.
	SortDefault SortOrder = ""

	// SortTopRated orders by rating, highest first.
	SortTopRated SortOrder = "rating"

	// SortMostReviewed orders by review count, highest first.
	SortMostReviewed SortOrder = "reviews"
)

// ParseSortOrder maps a query value to a SortOrder. Unknown values fall back
// to SortDefault.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortTopRated, SortMostReviewed:
		return SortOrder(s)
	default:
		return SortDefault
	}
}

// SortProducts returns a sorted copy of products. Ties keep their input order.
func SortProducts(products []Product, order SortOrder) []Product {
	sorted := append([]Product(nil), products...)

	switch order {
	case SortTopRated:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Rating > sorted[j].Rating
		})
	case SortMostReviewed:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ReviewCount > sorted[j].ReviewCount
		})
	}

	return sorted
}
