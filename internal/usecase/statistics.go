package usecase

import (
	"math"
	"slices"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// DefaultTopBrands is the number of brands listed in catalog statistics
const DefaultTopBrands = 5

// NameCount is a label with the number of products carrying it
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StoreStats summarizes the offers of one store
type StoreStats struct {
	Store        string  `json:"store"`
	Products     int     `json:"products"`
	AveragePrice float64 `json:"averagePrice"`
}

// PriceRange holds the extremes of the lowest prices in the catalog
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Statistics is the aggregate view over the whole catalog
type Statistics struct {
	TotalProducts      int          `json:"totalProducts"`
	UniqueBrands       int          `json:"uniqueBrands"`
	TopBrands          []NameCount  `json:"topBrands"`
	Categories         []NameCount  `json:"categories"`
	Stores             []StoreStats `json:"stores"`
	DiscountedProducts int          `json:"discountedProducts"`
	PriceRange         *PriceRange  `json:"priceRange"`
	Favorites          int          `json:"favorites"`
}

// ComputeStatistics aggregates counts and prices over products. Known stores are always
// reported, with a zero average when they carry nothing; other stores follow in order of
// first appearance. Counts are sorted descending with ties in Dutch collation order.
func ComputeStatistics(products []domain.Product, topBrands int) Statistics {
	if topBrands <= 0 {
		topBrands = DefaultTopBrands
	}

	brands := make(map[string]int)
	categories := make(map[string]int)
	storeOrder := slices.Clone(domain.KnownStores)
	storeSums := make(map[string]float64)
	storeCounts := make(map[string]int)

	stats := Statistics{TotalProducts: len(products)}

	for _, p := range products {
		brands[p.Brand]++
		categories[p.Category]++

		discounted := false
		for _, store := range p.AvailableStores {
			entry := p.StorePrices[store]
			if _, seen := storeCounts[store]; !seen && !slices.Contains(storeOrder, store) {
				storeOrder = append(storeOrder, store)
			}
			storeCounts[store]++
			storeSums[store] += *entry.Price
			if entry.Discounted() {
				discounted = true
			}
		}
		if discounted {
			stats.DiscountedProducts++
		}

		if p.LowestPrice != nil {
			price := *p.LowestPrice
			if stats.PriceRange == nil {
				stats.PriceRange = &PriceRange{Min: price, Max: price}
			} else {
				stats.PriceRange.Min = min(stats.PriceRange.Min, price)
				stats.PriceRange.Max = max(stats.PriceRange.Max, price)
			}
		}
	}

	stats.UniqueBrands = len(brands)
	stats.TopBrands = rankCounts(brands)
	if len(stats.TopBrands) > topBrands {
		stats.TopBrands = stats.TopBrands[:topBrands]
	}
	stats.Categories = rankCounts(categories)

	stats.Stores = make([]StoreStats, 0, len(storeOrder))
	for _, store := range storeOrder {
		s := StoreStats{Store: store, Products: storeCounts[store]}
		if s.Products > 0 {
			s.AveragePrice = roundCents(storeSums[store] / float64(s.Products))
		}
		stats.Stores = append(stats.Stores, s)
	}

	return stats
}

func rankCounts(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}

	collator := newDutchCollator()
	slices.SortFunc(out, func(a, b NameCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		// byte order breaks collation ties
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
