package domain

import "strings"

// SortKey selects the ordering of filtered results
type SortKey string

const (
	SortRelevance    SortKey = "relevance"
	SortPriceLow     SortKey = "price-low"
	SortPriceHigh    SortKey = "price-high"
	SortAlphabetical SortKey = "alphabetical"
	SortBrand        SortKey = "brand"
)

// Default price bounds of the price range slider
const (
	DefaultMinPrice = 0.0
	DefaultMaxPrice = 20.0
)

// ParseSortKey maps a raw value to a SortKey. Unknown values become SortRelevance.
func ParseSortKey(raw string) SortKey {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case SortPriceLow, SortPriceHigh, SortAlphabetical, SortBrand:
		return key
	default:
		return SortRelevance
	}
}

// FilterCriteria is the current search/filter/sort/favorites-only combination
type FilterCriteria struct {
	Search        string   `json:"search"`
	Brands        []string `json:"brands"`
	Categories    []string `json:"categories"`
	Stores        []string `json:"stores"`
	MinPrice      float64  `json:"minPrice" validate:"gte=0"`
	MaxPrice      float64  `json:"maxPrice" validate:"gte=0"`
	Sort          SortKey  `json:"sort"`
	FavoritesOnly bool     `json:"favoritesOnly"`
}

// DefaultCriteria returns the criteria restored by a "reset filters" action
func DefaultCriteria() FilterCriteria {
	return DefaultCriteriaWithMax(DefaultMaxPrice)
}

// DefaultCriteriaWithMax returns default criteria with a configured upper price bound
func DefaultCriteriaWithMax(maxPrice float64) FilterCriteria {
	return FilterCriteria{
		Brands:     []string{},
		Categories: []string{},
		Stores:     []string{},
		MinPrice:   DefaultMinPrice,
		MaxPrice:   maxPrice,
		Sort:       SortRelevance,
	}
}

// Normalized returns a copy with an inverted price range clamped (minPrice lowered
// to maxPrice) and an unknown sort key replaced by relevance.
func (c FilterCriteria) Normalized() FilterCriteria {
	out := c
	if out.MinPrice > out.MaxPrice {
		out.MinPrice = out.MaxPrice
	}
	out.Sort = ParseSortKey(string(out.Sort))
	return out
}

// FavoriteLookup answers membership questions about the favorite set
type FavoriteLookup interface {
	IsFavorite(id string) bool
}

// FavoriteSet is a plain set of favorite product ids
type FavoriteSet map[string]struct{}

// NewFavoriteSet builds a set from a list of ids
func NewFavoriteSet(ids ...string) FavoriteSet {
	set := make(FavoriteSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// IsFavorite implements FavoriteLookup
func (s FavoriteSet) IsFavorite(id string) bool {
	_, ok := s[id]
	return ok
}
