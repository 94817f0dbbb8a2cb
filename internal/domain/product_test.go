package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func TestDeriveLowestPrice(t *testing.T) {
	tests := []struct {
		name   string
		order  []string
		prices map[string]PriceEntry
		want   *float64
	}{
		{
			name:  "minimum across stores",
			order: KnownStores,
			prices: map[string]PriceEntry{
				StoreAlbertHeijn: {Price: price(3.49)},
				StoreJumbo:       {Price: price(3.59)},
				StoreBol:         {Price: price(3.89)},
			},
			want: price(3.49),
		},
		{
			name:  "null prices are skipped",
			order: KnownStores,
			prices: map[string]PriceEntry{
				StoreAlbertHeijn: {Price: nil},
				StoreJumbo:       {Price: price(1.97)},
			},
			want: price(1.97),
		},
		{
			name:   "all null gives nil",
			order:  KnownStores,
			prices: map[string]PriceEntry{StoreAlbertHeijn: {}, StoreJumbo: {}, StoreBol: {}},
			want:   nil,
		},
		{
			name:   "negative prices are never the lowest price",
			order:  []string{"plus"},
			prices: map[string]PriceEntry{"plus": {Price: price(-1)}},
			want:   nil,
		},
		{
			name:   "zero is a valid price",
			order:  []string{"plus"},
			prices: map[string]PriceEntry{"plus": {Price: price(0)}},
			want:   price(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveLowestPrice(tt.order, tt.prices)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestDeriveAvailableStores(t *testing.T) {
	prices := map[string]PriceEntry{
		StoreBol:         {Price: price(3.19)},
		StoreAlbertHeijn: {Price: price(2.99)},
		StoreJumbo:       {Price: nil},
	}

	t.Run("follows key order", func(t *testing.T) {
		assert.Equal(t, []string{StoreAlbertHeijn, StoreBol}, DeriveAvailableStores(KnownStores, prices))
	})

	t.Run("empty when no prices", func(t *testing.T) {
		got := DeriveAvailableStores(KnownStores, map[string]PriceEntry{})
		assert.Empty(t, got)
	})
}

func TestProduct_BestStores(t *testing.T) {
	p := Product{
		StorePrices: map[string]PriceEntry{
			StoreAlbertHeijn: {Price: price(2.89)},
			StoreJumbo:       {Price: price(2.89)},
			StoreBol:         {Price: price(3.19)},
		},
		AvailableStores: KnownStores,
		LowestPrice:     price(2.89),
	}

	assert.Equal(t, []string{StoreAlbertHeijn, StoreJumbo}, p.BestStores())
	assert.Nil(t, Product{}.BestStores())
}

func TestProduct_CompactFeatures(t *testing.T) {
	p := Product{Features: []string{"Lactosevrij", "Conserveermiddelvrij", "Rijk aan vezels"}}
	assert.Equal(t, []string{"Lactosevrij", "Conserveermiddelvrij"}, p.CompactFeatures())

	short := Product{Features: []string{"Dagvers"}}
	assert.Equal(t, []string{"Dagvers"}, short.CompactFeatures())
}

func TestCatalog_FindByID(t *testing.T) {
	c := Catalog{Products: []Product{{ID: "a"}, {ID: "b"}}}

	p, ok := c.FindByID("b")
	assert.True(t, ok)
	assert.Equal(t, "b", p.ID)

	_, ok = c.FindByID("zzz")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}
