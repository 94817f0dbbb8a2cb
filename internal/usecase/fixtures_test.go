package usecase

import (
	"github.com/glutenvergelijker/backend/internal/domain"
)

func ptr(v float64) *float64 { return &v }

// storePrice pairs a store id with an optional price for fixture construction
type storePrice struct {
	store string
	price *float64
}

func newTestProduct(id, name, brand, category string, prices ...storePrice) domain.Product {
	order := make([]string, 0, len(prices))
	entries := make(map[string]domain.PriceEntry, len(prices))
	for _, sp := range prices {
		order = append(order, sp.store)
		entries[sp.store] = domain.PriceEntry{Price: sp.price}
	}
	return domain.Product{
		ID:              id,
		Name:            name,
		Brand:           brand,
		Category:        category,
		StorePrices:     entries,
		StoreOrder:      order,
		LowestPrice:     domain.DeriveLowestPrice(order, entries),
		AvailableStores: domain.DeriveAvailableStores(order, entries),
		Features:        []string{},
	}
}

// scenarioCatalog is the three-product catalog used by the acceptance scenarios
func scenarioCatalog() []domain.Product {
	return []domain.Product{
		newTestProduct("A", "Schär Ciabatta", "Schär", "Brood",
			storePrice{"ah", ptr(3.49)}, storePrice{"jumbo", ptr(3.59)}),
		newTestProduct("B", "Schär Penne Pasta", "Schär", "Pasta",
			storePrice{"ah", ptr(2.99)}),
		newTestProduct("C", "AH VrijVan Wit Brood", "AH", "Brood",
			storePrice{"ah", nil}, storePrice{"jumbo", nil}),
	}
}

// richCatalog is a larger catalog resembling the bundled sample data
func richCatalog() []domain.Product {
	crackers := newTestProduct("p4", "Consenza Mais Crackers", "Consenza", "Crackers",
		storePrice{domain.StoreAlbertHeijn, ptr(2.19)}, storePrice{domain.StoreJumbo, ptr(2.09)}, storePrice{domain.StoreBol, ptr(2.49)})
	crackers.Features = []string{"Lactosevrij", "Tarwevrij"}
	crackers.Description = "Luchtige mais crackers"

	return []domain.Product{
		newTestProduct("p1", "Semper Meergranen Brood", "Semper", "Brood",
			storePrice{domain.StoreAlbertHeijn, ptr(3.89)}, storePrice{domain.StoreJumbo, ptr(3.69)}, storePrice{domain.StoreBol, ptr(4.19)}),
		newTestProduct("p2", "Schär Ciabatta", "Schär", "Brood",
			storePrice{domain.StoreAlbertHeijn, ptr(3.49)}, storePrice{domain.StoreJumbo, ptr(3.59)}, storePrice{domain.StoreBol, ptr(3.89)}),
		newTestProduct("p3", "Jumbo Lekker Vrij Cakemix", "Jumbo Lekker Vrij", "Bakmixen",
			storePrice{domain.StoreAlbertHeijn, nil}, storePrice{domain.StoreJumbo, ptr(1.97)}, storePrice{domain.StoreBol, nil}),
		crackers,
		newTestProduct("p5", "Schar Mini Baguette", "Schar", "Brood",
			storePrice{domain.StoreAlbertHeijn, ptr(2.79)}),
		newTestProduct("p6", "Onbekend Brood", "Onbekend", "Brood",
			storePrice{domain.StoreAlbertHeijn, nil}),
		newTestProduct("p7", "Dr. Oetker Pizza Mozzarella", "Dr. Oetker", "Diepvries",
			storePrice{domain.StoreAlbertHeijn, ptr(4.29)}, storePrice{domain.StoreBol, ptr(4.89)}),
		newTestProduct("p8", "Peaks Muffinmix Chocolade", "Peaks", "Bakmixen",
			storePrice{domain.StoreBol, ptr(3.49)}),
		newTestProduct("p9", "Duur Luxe Brood", "Semper", "Brood",
			storePrice{domain.StoreBol, ptr(24.50)}),
	}
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
