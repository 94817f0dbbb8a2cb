package domain

import "time"

// Known store identifiers of the fixed three-store schema, in enumeration order
const (
	StoreAlbertHeijn = "albert_heijn"
	StoreJumbo       = "jumbo"
	StoreBol         = "bol"
)

// KnownStores lists the fixed-schema stores in the order availableStores uses
var KnownStores = []string{StoreAlbertHeijn, StoreJumbo, StoreBol}

// UnknownLabel replaces empty name, brand and category values
const UnknownLabel = "Onbekend"

// PriceEntry is the offer of a single store for a product
type PriceEntry struct {
	Price              *float64 `json:"price"`
	OriginalPrice      *float64 `json:"originalPrice,omitempty"`
	DiscountPercentage *float64 `json:"discountPercentage,omitempty"`
	URL                string   `json:"url,omitempty"`
	InStock            *bool    `json:"inStock,omitempty"`
}

// HasPrice reports whether the store actually sells the product
func (e PriceEntry) HasPrice() bool {
	return e.Price != nil
}

// Discounted reports whether the store lists a discount for the product
func (e PriceEntry) Discounted() bool {
	return e.DiscountPercentage != nil && *e.DiscountPercentage > 0
}

// Product is the canonical, normalized catalog entry. It is immutable once loaded.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Weight      string `json:"weight,omitempty"`
	ImageURL    string `json:"imageUrl"`

	// StorePrices is keyed by store id; StoreOrder keeps the source key order
	StorePrices map[string]PriceEntry `json:"storePrices"`
	StoreOrder  []string              `json:"storeOrder"`

	// Derived once during normalization
	LowestPrice     *float64 `json:"lowestPrice"`
	AvailableStores []string `json:"availableStores"`

	Features  []string `json:"features"`
	Allergens string   `json:"allergens,omitempty"`
}

// IsAvailableAt reports whether the product has a price at the given store
func (p Product) IsAvailableAt(store string) bool {
	for _, s := range p.AvailableStores {
		if s == store {
			return true
		}
	}
	return false
}

// BestStores returns the stores whose price equals the lowest price
func (p Product) BestStores() []string {
	if p.LowestPrice == nil {
		return nil
	}
	var best []string
	for _, store := range p.AvailableStores {
		entry := p.StorePrices[store]
		if entry.Price != nil && *entry.Price == *p.LowestPrice {
			best = append(best, store)
		}
	}
	return best
}

// CompactFeatures returns the features shown on a compact product card
func (p Product) CompactFeatures() []string {
	if len(p.Features) <= 2 {
		return p.Features
	}
	return p.Features[:2]
}

// DeriveLowestPrice returns the minimum non-null, non-negative store price.
// The result is nil when no store has a usable price.
func DeriveLowestPrice(order []string, prices map[string]PriceEntry) *float64 {
	var lowest *float64
	for _, store := range order {
		entry, ok := prices[store]
		if !ok || entry.Price == nil || *entry.Price < 0 {
			continue
		}
		if lowest == nil || *entry.Price < *lowest {
			v := *entry.Price
			lowest = &v
		}
	}
	return lowest
}

// DeriveAvailableStores returns the store ids with a non-null price, in key order
func DeriveAvailableStores(order []string, prices map[string]PriceEntry) []string {
	stores := make([]string, 0, len(order))
	for _, store := range order {
		if entry, ok := prices[store]; ok && entry.Price != nil && *entry.Price >= 0 {
			stores = append(stores, store)
		}
	}
	return stores
}

// Catalog is an immutable snapshot of all products for the session
type Catalog struct {
	Products []Product `json:"products"`
	Source   string    `json:"source"` // "remote", "file", "cache", "stale-cache" or "sample"
	LoadedAt time.Time `json:"loadedAt"`
}

// Len returns the number of products in the snapshot
func (c Catalog) Len() int {
	return len(c.Products)
}

// FindByID returns the product with the given id
func (c Catalog) FindByID(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
