package catalog

import (
	"sort"
	"strings"
)

const (
	// AllProducts is the synthetic group that contains every product type.
	AllProducts = "All Products"

	// FilterAll is the default filter selection and is equivalent to AllProducts.
	FilterAll = "all"
)

// Group is a named subcategory defined by keywords matched against product types.
type Group struct {
	Name     string
	Keywords []string
}

// FilterGroup is a group resolved against the product types of a category.
type FilterGroup struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Types []string `json:"types"`
}

// subgroups is the category -> groups table. Order within a category is the
// tie-break order when groups have equal counts.
var subgroups = map[string][]Group{
	"makeup": {
		{Name: "Eye Makeup", Keywords: []string{
			"eye", "mascara", "eyeliner", "kajal", "shadow",
			"eyeshadow", "eye liner", "eye shadow", "eye makeup",
		}},
		{Name: "Lip Products", Keywords: []string{
			"lip", "lipstick", "gloss", "lip gloss", "lip stick",
			"lipgloss", "lip color", "lip colour", "lip stain",
			"lip liner", "lipliner", "lip balm", "lipbalm",
		}},
		{Name: "Face Makeup", Keywords: []string{
			"foundation", "concealer", "powder", "blush", "compact",
			"face powder", "bb cream", "cc cream", "primer",
			"bronzer", "highlighter", "contour", "face makeup",
		}},
		{Name: "Nail Products", Keywords: []string{
			"nail", "polish", "lacquer", "nail polish",
			"nail color", "nail colour", "nail care", "nail art",
		}},
	},
	"skincare": {
		{Name: "Cleansers", Keywords: []string{
			"cleanser", "wash", "face wash", "facial wash", "cleaning",
			"cleansing", "face cleanser", "facial cleanser",
		}},
		{Name: "Moisturizers", Keywords: []string{
			"moisturizer", "cream", "lotion", "hydrating",
			"moisturizing", "face cream", "facial cream",
			"day cream", "night cream", "hydration",
		}},
		{Name: "Treatments", Keywords: []string{
			"serum", "treatment", "essence", "ampoule",
			"face serum", "facial serum", "skin treatment",
		}},
		{Name: "Masks", Keywords: []string{
			"mask", "pack", "peel", "face mask",
			"facial mask", "sheet mask", "clay mask",
		}},
		{Name: "Toners", Keywords: []string{
			"toner", "mist", "essence", "facial toner",
			"face toner", "skin toner",
		}},
	},
	"haircare": {
		{Name: "Shampoos", Keywords: []string{
			"shampoo", "wash", "hair wash", "hair cleaner",
			"hair cleanser", "hair cleaning",
		}},
		{Name: "Conditioners", Keywords: []string{
			"conditioner", "conditioning", "hair conditioner",
			"deep conditioner", "leave-in conditioner",
		}},
		{Name: "Hair Treatments", Keywords: []string{
			"treatment", "mask", "oil", "serum",
			"hair treatment", "hair mask", "hair oil", "hair serum",
			"hair care", "scalp treatment", "hair therapy",
		}},
	},
	"fragrance": {
		{Name: "Perfumes", Keywords: []string{
			"perfume", "parfum", "eau de", "fragrance",
			"eau de parfum", "eau de toilette", "edt", "edp",
		}},
		{Name: "Body Sprays", Keywords: []string{
			"body spray", "mist", "body mist", "body fragrance",
			"deodorant spray", "fragrance mist",
		}},
		{Name: "Deodorants", Keywords: []string{
			"deodorant", "antiperspirant", "anti-perspirant",
			"deo", "roll-on",
		}},
	},
	"miscellaneous": {
		{Name: "Tools", Keywords: []string{"tool", "brush", "applicator"}},
		{Name: "Accessories", Keywords: []string{"accessory", "accessories"}},
		{Name: "Sets & Kits", Keywords: []string{"kit", "set", "collection"}},
	},
}

// GroupsFor returns the keyword groups of a category, excluding AllProducts.
// Unknown categories have no groups.
func GroupsFor(category string) []Group {
	return subgroups[NormalizeCategory(category)]
}

// Keywords returns the keywords of the named group. The category's own table
// is consulted first, then every other category.
func Keywords(category, group string) []string {
	for _, g := range GroupsFor(category) {
		if g.Name == group {
			return g.Keywords
		}
	}
	for _, groups := range subgroups {
		for _, g := range groups {
			if g.Name == group {
				return g.Keywords
			}
		}
	}
	return nil
}

// IsAll reports whether a filter selection means "no filter".
func IsAll(filter string) bool {
	return filter == "" || filter == FilterAll || filter == AllProducts
}

// MatchesKeywords reports whether productType belongs to a group defined by
// keywords. A type matches when its lower-cased text contains a keyword, or
// contains every whitespace-separated token of a keyword.
func MatchesKeywords(productType string, keywords []string) bool {
	text := strings.ToLower(productType)

	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
		if containsAllTokens(text, strings.Fields(kw)) {
			return true
		}
	}
	return false
}

func containsAllTokens(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}

// DistinctTypes returns the product types of products in first-seen order.
func DistinctTypes(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	types := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.ProductType]; ok {
			continue
		}
		seen[p.ProductType] = struct{}{}
		types = append(types, p.ProductType)
	}
	return types
}

// GroupTypes partitions types into the category's groups. The result always
// starts with AllProducts (containing every type), followed by the non-empty
// groups by descending count; equal counts keep table order.
func GroupTypes(category string, types []string) []FilterGroup {
	all := FilterGroup{
		Name:  AllProducts,
		Count: len(types),
		Types: append([]string(nil), types...),
	}

	var groups []FilterGroup
	for _, g := range GroupsFor(category) {
		var members []string
		for _, t := range types {
			if MatchesKeywords(t, g.Keywords) {
				members = append(members, t)
			}
		}
		if len(members) == 0 {
			continue
		}
		groups = append(groups, FilterGroup{
			Name:  g.Name,
			Count: len(members),
			Types: members,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	return append([]FilterGroup{all}, groups...)
}

// FilterProducts returns the products of category matching the selected
// group. IsAll selections return every product.
func FilterProducts(products []Product, category, filter string) []Product {
	if IsAll(filter) {
		return append([]Product(nil), products...)
	}

	keywords := Keywords(category, filter)
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if MatchesKeywords(p.ProductType, keywords) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
