// Package pagination implements the client-side "load more" window used by
// category listings.
//
// A Pager tracks how many pages of a list are visible. The visible prefix of a
// list of N items is min(page*size, N); more items exist while page*size < N.
//
// Example usage:
//
//	pager := pagination.New(pagination.DefaultPageSize)
//	visible := pagination.Window(products, pager) // first 20
//	if pager.HasMore(len(products)) {
//		pager.Next(len(products))
//	}
//
// A Pager is not safe for concurrent use; callers hold their own lock.
package pagination
