package catalog

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func price(v float64) *float64 { return &v }

func TestPriceOrFallback(t *testing.T) {
	tests := []struct {
		name  string
		price *float64
		want  float64
	}{
		{name: "absent", price: nil, want: FallbackPrice},
		{name: "valid", price: price(12.5), want: 12.5},
		{name: "zero", price: price(0), want: FallbackPrice},
		{name: "negative", price: price(-3), want: FallbackPrice},
		{name: "NaN", price: price(math.NaN()), want: FallbackPrice},
		{name: "infinite", price: price(math.Inf(1)), want: FallbackPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceOrFallback(tt.price); got != tt.want {
				t.Errorf("PriceOrFallback() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProduct_JSONShape(t *testing.T) {
	payload := `{"ProductId":"B0001","ProductType":"Matte Lipstick","ImageURL":"https://img/1.jpg","Rating":4.5,"ReviewCount":120}`

	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.ProductID != "B0001" || p.ProductType != "Matte Lipstick" || p.ReviewCount != 120 {
		t.Errorf("decoded %+v", p)
	}
	if p.Price != nil {
		t.Errorf("Price = %v, want nil", *p.Price)
	}
	if p.UnitPrice() != FallbackPrice {
		t.Errorf("UnitPrice() = %v, want %v", p.UnitPrice(), FallbackPrice)
	}
}

func TestProduct_Image(t *testing.T) {
	if got := (Product{}).Image(); got != PlaceholderImageURL {
		t.Errorf("Image() = %q, want placeholder", got)
	}
	if got := (Product{ImageURL: "https://img/1.jpg"}).Image(); got != "https://img/1.jpg" {
		t.Errorf("Image() = %q", got)
	}
}

func TestMatchesKeywords(t *testing.T) {
	tests := []struct {
		name        string
		productType string
		keywords    []string
		want        bool
	}{
		{name: "substring", productType: "Matte Lipstick", keywords: []string{"lip"}, want: true},
		{name: "case insensitive", productType: "VOLUMIZING MASCARA", keywords: []string{"Mascara"}, want: true},
		{name: "all tokens separately", productType: "Shadow Palette for Eye", keywords: []string{"eye shadow"}, want: true},
		{name: "partial tokens", productType: "Eye Cream", keywords: []string{"eye shadow"}, want: false},
		{name: "no match", productType: "Pressed Powder", keywords: []string{"nail", "polish"}, want: false},
		{name: "empty keyword ignored", productType: "Anything", keywords: []string{"", "  "}, want: false},
		{name: "no keywords", productType: "Anything", keywords: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesKeywords(tt.productType, tt.keywords); got != tt.want {
				t.Errorf("MatchesKeywords(%q, %v) = %v, want %v", tt.productType, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestGroupTypes_Makeup(t *testing.T) {
	types := []string{"Matte Lipstick", "Volumizing Mascara", "Pressed Powder"}

	groups := GroupTypes("Makeup", types)

	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4: %+v", len(groups), groups)
	}
	if groups[0].Name != AllProducts || groups[0].Count != 3 {
		t.Errorf("first group = %+v, want All Products(3)", groups[0])
	}

	counts := make(map[string]int)
	for _, g := range groups[1:] {
		counts[g.Name] = g.Count
	}
	want := map[string]int{"Face Makeup": 1, "Eye Makeup": 1, "Lip Products": 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("group counts = %v, want %v", counts, want)
	}

	// Deterministic across calls
	again := GroupTypes("makeup", types)
	if !reflect.DeepEqual(groups, again) {
		t.Error("GroupTypes is not deterministic")
	}
}

func TestGroupTypes_OrderByCount(t *testing.T) {
	types := []string{"Nail Polish", "Gel Nail Lacquer", "Liquid Eyeliner", "Nail Art Kit"}

	groups := GroupTypes("makeup", types)

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	want := []string{AllProducts, "Nail Products", "Eye Makeup"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("group order = %v, want %v", names, want)
	}
	if groups[1].Count != 3 {
		t.Errorf("Nail Products count = %d, want 3", groups[1].Count)
	}
}

func TestGroupTypes_UnknownCategory(t *testing.T) {
	groups := GroupTypes("gadgets", []string{"Phone"})
	if len(groups) != 1 || groups[0].Name != AllProducts || groups[0].Count != 1 {
		t.Errorf("GroupTypes(unknown) = %+v, want only All Products(1)", groups)
	}

	empty := GroupTypes("makeup", nil)
	if len(empty) != 1 || empty[0].Count != 0 {
		t.Errorf("GroupTypes(no types) = %+v, want only All Products(0)", empty)
	}
}

func TestDistinctTypes(t *testing.T) {
	products := []Product{
		{ProductID: "1", ProductType: "Mascara"},
		{ProductID: "2", ProductType: "Lipstick"},
		{ProductID: "3", ProductType: "Mascara"},
	}
	got := DistinctTypes(products)
	want := []string{"Mascara", "Lipstick"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctTypes() = %v, want %v", got, want)
	}
}

func TestFilterProducts(t *testing.T) {
	products := []Product{
		{ProductID: "1", ProductType: "Volumizing Mascara"},
		{ProductID: "2", ProductType: "Matte Lipstick"},
		{ProductID: "3", ProductType: "Lip Gloss"},
		{ProductID: "4", ProductType: "Pressed Powder"},
	}

	tests := []struct {
		name    string
		filter  string
		wantIDs []string
	}{
		{name: "all", filter: FilterAll, wantIDs: []string{"1", "2", "3", "4"}},
		{name: "All Products", filter: AllProducts, wantIDs: []string{"1", "2", "3", "4"}},
		{name: "lip", filter: "Lip Products", wantIDs: []string{"2", "3"}},
		{name: "eye", filter: "Eye Makeup", wantIDs: []string{"1"}},
		{name: "unknown group", filter: "Gadgets", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProducts(products, "makeup", tt.filter)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ProductID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("FilterProducts(%q) = %v, want %v", tt.filter, ids, tt.wantIDs)
			}
		})
	}
}

func TestKeywords_FallsBackToOtherCategories(t *testing.T) {
	if kw := Keywords("makeup", "Shampoos"); len(kw) == 0 {
		t.Error("Keywords should find groups defined under other categories")
	}
	if kw := Keywords("makeup", "Nope"); kw != nil {
		t.Errorf("Keywords(unknown) = %v, want nil", kw)
	}
}

func TestSortProducts(t *testing.T) {
	products := []Product{
		{ProductID: "a", Rating: 4.0, ReviewCount: 10},
		{ProductID: "b", Rating: 4.8, ReviewCount: 3},
		{ProductID: "c", Rating: 4.0, ReviewCount: 50},
	}

	ids := func(ps []Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ProductID
		}
		return out
	}

	if got := ids(SortProducts(products, SortTopRated)); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("SortTopRated = %v", got)
	}
	if got := ids(SortProducts(products, SortMostReviewed)); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("SortMostReviewed = %v", got)
	}
	if got := ids(SortProducts(products, SortDefault)); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SortDefault = %v", got)
	}
	if products[0].ProductID != "a" {
		t.Error("SortProducts modified its input")
	}
}

func TestParseSortOrder(t *testing.T) {
	if ParseSortOrder("rating") != SortTopRated || ParseSortOrder("reviews") != SortMostReviewed {
		t.Error("known sort orders not parsed")
	}
	if ParseSortOrder("price") != SortDefault {
		t.Error("unknown sort order should fall back to default")
	}
}

func TestRoundCents(t *testing.T) {
	if got := RoundCents(0.1 + 0.2); got != 0.3 {
		t.Errorf("RoundCents(0.1+0.2) = %v, want 0.3", got)
	}
}
