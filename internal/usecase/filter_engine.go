package usecase

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// productPredicate reports whether a product passes one filter category
type productPredicate func(p *domain.Product) bool

// Apply returns the ordered subset of catalog matching criteria.
//
// Predicates are ANDed across filter categories and ORed across the values selected within
// a category. The price range is always applied, so products without any price never appear.
// The catalog slice and its products are not modified.
func Apply(catalog []domain.Product, criteria domain.FilterCriteria, favorites domain.FavoriteLookup) []domain.Product {
	criteria = criteria.Normalized()
	predicates := buildPredicates(criteria, favorites)

	result := make([]domain.Product, 0, len(catalog))
	for i := range catalog {
		if matchesAll(&catalog[i], predicates) {
			result = append(result, catalog[i])
		}
	}

	sortProducts(result, criteria.Sort)
	return result
}

func matchesAll(p *domain.Product, predicates []productPredicate) bool {
	for _, pred := range predicates {
		if !pred(p) {
			return false
		}
	}
	return true
}

func buildPredicates(criteria domain.FilterCriteria, favorites domain.FavoriteLookup) []productPredicate {
	var predicates []productPredicate

	if criteria.FavoritesOnly {
		predicates = append(predicates, func(p *domain.Product) bool {
			return favorites != nil && favorites.IsFavorite(p.ID)
		})
	}

	if term := normalizeSearchTerm(criteria.Search); term != "" {
		predicates = append(predicates, func(p *domain.Product) bool {
			return matchesSearch(p, term)
		})
	}

	if len(criteria.Brands) > 0 {
		brands := toSet(criteria.Brands)
		predicates = append(predicates, func(p *domain.Product) bool {
			_, ok := brands[p.Brand]
			return ok
		})
	}

	if len(criteria.Categories) > 0 {
		categories := toSet(criteria.Categories)
		predicates = append(predicates, func(p *domain.Product) bool {
			_, ok := categories[p.Category]
			return ok
		})
	}

	// A product qualifies when it is sold at any of the selected stores
	if len(criteria.Stores) > 0 {
		stores := criteria.Stores
		predicates = append(predicates, func(p *domain.Product) bool {
			for _, s := range stores {
				if p.IsAvailableAt(s) {
					return true
				}
			}
			return false
		})
	}

	minPrice, maxPrice := criteria.MinPrice, criteria.MaxPrice
	predicates = append(predicates, func(p *domain.Product) bool {
		return p.LowestPrice != nil && *p.LowestPrice >= minPrice && *p.LowestPrice <= maxPrice
	})

	return predicates
}

// normalizeSearchTerm trims and lowercases the raw search input
func normalizeSearchTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchesSearch(p *domain.Product, term string) bool {
	if containsFold(p.Name, term) ||
		containsFold(p.Brand, term) ||
		containsFold(p.Category, term) ||
		containsFold(p.Description, term) {
		return true
	}
	for _, feature := range p.Features {
		if containsFold(feature, term) {
			return true
		}
	}
	return false
}

// containsFold reports whether lowerTerm is a substring of s, ignoring case
func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerTerm)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// sortProducts orders products in place. The sort is stable, so insertion order breaks ties.
func sortProducts(products []domain.Product, key domain.SortKey) {
	switch key {
	case domain.SortPriceLow:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return comparePrices(a.LowestPrice, b.LowestPrice, false)
		})
	case domain.SortPriceHigh:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return comparePrices(a.LowestPrice, b.LowestPrice, true)
		})
	case domain.SortAlphabetical:
		coll := newDutchCollator()
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return coll.CompareString(a.Name, b.Name)
		})
	case domain.SortBrand:
		coll := newDutchCollator()
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return coll.CompareString(a.Brand, b.Brand)
		})
	default:
		// relevance keeps catalog order
	}
}

// comparePrices orders by price with products lacking a price last in both directions
func comparePrices(a, b *float64, descending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if descending {
		return cmp.Compare(*b, *a)
	}
	return cmp.Compare(*a, *b)
}

// newDutchCollator returns a collator for Dutch. Collators are not safe for concurrent use,
// so each sort gets its own.
func newDutchCollator() *collate.Collator {
	return collate.New(language.Dutch, collate.IgnoreCase)
}
