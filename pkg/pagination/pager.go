package pagination

import "math"

// DefaultPageSize is the number of items revealed per page.
const DefaultPageSize = 20

// Pager tracks the number of revealed pages of a list.
type Pager struct {
	size int
	page int
}

// New creates a pager showing the first page. Non-positive sizes fall back to
// DefaultPageSize.
func New(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size, page: 1}
}

// Size returns the page size.
func (p *Pager) Size() int { return p.size }

// Page returns the number of revealed pages (>= 1).
func (p *Pager) Page() int { return p.page }

// SetPage reveals exactly n pages. Values below 1 are clamped to 1.
func (p *Pager) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	p.page = n
}

// Reset goes back to the first page.
func (p *Pager) Reset() {
	p.page = 1
}

// Limit is the maximum number of visible items at the current page. It
// saturates at math.MaxInt.
func (p *Pager) Limit() int {
	if p.page > math.MaxInt/p.size {
		return math.MaxInt
	}
	return p.page * p.size
}

// Visible returns how many of total items are shown.
func (p *Pager) Visible(total int) int {
	if total < 0 {
		return 0
	}
	return min(p.Limit(), total)
}

// HasMore reports whether items beyond the visible window exist.
func (p *Pager) HasMore(total int) bool {
	return p.Limit() < total
}

// Next reveals one more page if there is anything left to reveal.
// It reports whether the page advanced.
func (p *Pager) Next(total int) bool {
	if !p.HasMore(total) {
		return false
	}
	p.page++
	return true
}

// Window returns the visible prefix of items.
func Window[T any](items []T, p *Pager) []T {
	return items[:p.Visible(len(items))]
}
