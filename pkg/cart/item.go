// Package cart implements the persisted shopping cart and the observers that
// render cart-derived views.
//
// The cart lives under storage.CartKey as a JSON array of line items. Every
// mutation persists first and then notifies: same-process observers through an
// events.Hub, other storefront processes through an optional remote
// events.Transport. A Store reloads from storage when another process reports
// a change.
package cart

import "github.com/Sternrassler/beauty-storefront/pkg/catalog"

// LineItem is one product in the cart with its quantity.
type LineItem struct {
	ProductID   string   `json:"ProductId"`
	ProductType string   `json:"ProductType"`
	ImageURL    string   `json:"ImageURL"`
	Rating      float64  `json:"Rating"`
	ReviewCount int      `json:"ReviewCount"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    int      `json:"quantity"`
}

// NewLineItem creates a line item with quantity 1 from a product.
func NewLineItem(p catalog.Product) LineItem {
	item := LineItem{
		ProductID:   p.ProductID,
		ProductType: p.ProductType,
		ImageURL:    p.ImageURL,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Quantity:    1,
	}
	if p.Price != nil {
		price := *p.Price
		item.Price = &price
	}
	return item
}

// UnitPrice returns the price used for totals.
func (li LineItem) UnitPrice() float64 {
	return catalog.PriceOrFallback(li.Price)
}

// LineTotal is UnitPrice times Quantity, rounded to cents.
func (li LineItem) LineTotal() float64 {
	return catalog.RoundCents(li.UnitPrice() * float64(li.Quantity))
}

// Image returns the item image or the placeholder.
func (li LineItem) Image() string {
	return catalog.Product{ImageURL: li.ImageURL}.Image()
}

// ItemCount is the sum of quantities.
func ItemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of line totals, rounded to cents.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.UnitPrice() * float64(it.Quantity)
	}
	return catalog.RoundCents(sum)
}

// sanitize drops line items that must not exist in a cart: empty ids and
// non-positive quantities. Duplicate ids are merged into the first occurrence.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
