// Package catalog holds the product model and the keyword-based grouping
// used to filter a category's products.
package catalog

import (
	"math"
	"strings"
)

// FallbackPrice is used for monetary totals when a product has no valid price.
const FallbackPrice = 29.99

// PlaceholderImageURL is shown when a product has no image.
const PlaceholderImageURL = "https://via.placeholder.com/300x300?text=No+Image"

// Product is a read-only catalog entry as served by the product API.
type Product struct {
	ProductID   string   `json:"ProductId"`
	ProductType string   `json:"ProductType"`
	ImageURL    string   `json:"ImageURL"`
	Rating      float64  `json:"Rating"`
	ReviewCount int      `json:"ReviewCount"`
	Price       *float64 `json:"price,omitempty"`
}

// UnitPrice returns the product price, or FallbackPrice when the price is
// absent, non-finite or not positive.
func (p Product) UnitPrice() float64 {
	return PriceOrFallback(p.Price)
}

// Image returns the product image URL or the placeholder.
func (p Product) Image() string {
	if strings.TrimSpace(p.ImageURL) == "" {
		return PlaceholderImageURL
	}
	return p.ImageURL
}

// PriceOrFallback applies the FallbackPrice rule to an optional price.
func PriceOrFallback(price *float64) float64 {
	if price == nil {
		return FallbackPrice
	}
	v := *price
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return FallbackPrice
	}
	return v
}

// RoundCents rounds a monetary amount to two decimals.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Category is a top-level directory entry.
type Category struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Categories lists the storefront directory in display order.
var Categories = []Category{
	{Slug: "makeup", Title: "Makeup"},
	{Slug: "skincare", Title: "Skincare"},
	{Slug: "haircare", Title: "Haircare"},
	{Slug: "fragrance", Title: "Fragrance"},
	{Slug: "miscellaneous", Title: "Miscellaneous"},
}

// NormalizeCategory lower-cases and trims a category identifier.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
