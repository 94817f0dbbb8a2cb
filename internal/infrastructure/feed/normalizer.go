package feed

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// Fixed-schema price fields, in known-store order
var fixedPriceFields = []struct {
	field string
	store string
}{
	{"price_ah", domain.StoreAlbertHeijn},
	{"price_jumbo", domain.StoreJumbo},
	{"price_bol", domain.StoreBol},
}

// storeAliases maps snake-cased shop names from scraped feeds onto known store ids
var storeAliases = map[string]string{
	"ah":          domain.StoreAlbertHeijn,
	"bol_com":     domain.StoreBol,
	"jumbo_nl":    domain.StoreJumbo,
	"albertheijn": domain.StoreAlbertHeijn,
}

var placeholderImages = map[string]string{
	"Brood":     "🍞",
	"Pasta":     "🍝",
	"Crackers":  "🍘",
	"Diepvries": "🍕",
	"Bakmixen":  "🧁",
}

const defaultPlaceholder = "🌾"

// PlaceholderImage returns the emoji shown for a category without a usable image
func PlaceholderImage(category string) string {
	if p, ok := placeholderImages[category]; ok {
		return p
	}
	return defaultPlaceholder
}

// StoreID converts a shop display name such as "Albert Heijn" into a store id
func StoreID(name string) string {
	id := strcase.ToSnake(strings.TrimSpace(name))
	if alias, ok := storeAliases[id]; ok {
		return alias
	}
	return id
}

// Normalizer turns raw catalog documents of any supported schema into canonical products
type Normalizer struct {
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.Named("normalizer"),
	}
}

// Normalize parses a catalog document. Malformed records are dropped with a warning; a
// document without a single usable product is rejected with domain.ErrInvalidCatalog.
func (n *Normalizer) Normalize(data []byte) ([]domain.Product, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", domain.ErrInvalidCatalog)
	}

	records, err := recordsOf(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if !rec.IsObject() {
			n.logger.Warn("skipping non-object record", zap.Int("index", i))
			continue
		}

		p, ok := n.normalizeRecord(i, rec)
		if !ok {
			n.logger.Warn("skipping record without price data", zap.Int("index", i), zap.String("id", p.ID))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			n.logger.Warn("skipping duplicate product id", zap.Int("index", i), zap.String("id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no usable products in %d records", domain.ErrInvalidCatalog, len(records))
	}

	n.logger.Debug("catalog normalized",
		zap.Int("records", len(records)),
		zap.Int("products", len(products)),
	)
	return products, nil
}

// recordsOf unwraps a top-level array or a {products|producten, meta} envelope
func recordsOf(doc gjson.Result) ([]gjson.Result, error) {
	if doc.IsArray() {
		return doc.Array(), nil
	}
	if doc.IsObject() {
		for _, key := range []string{"products", "producten"} {
			if list := doc.Get(key); list.IsArray() {
				return list.Array(), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: expected a product array or envelope", domain.ErrInvalidCatalog)
}

func (n *Normalizer) normalizeRecord(index int, rec gjson.Result) (domain.Product, bool) {
	p := domain.Product{
		ID:          recordID(index, rec),
		Name:        orUnknown(firstString(rec, "name", "naam")),
		Brand:       orUnknown(firstString(rec, "brand", "merk")),
		Category:    orUnknown(firstString(rec, "category", "categorie")),
		Description: n.sanitize(firstString(rec, "description", "beschrijving")),
		Weight:      firstString(rec, "weight", "size", "grootte"),
		Features:    stringList(rec.Get("features")),
		Allergens:   firstString(rec, "allergens", "allergenen"),
	}
	p.ImageURL = imageURL(firstString(rec, "image_url", "afbeelding", "image"), p.Category)

	prices, order, ok := extractPrices(rec)
	if !ok {
		return p, false
	}
	p.StorePrices = prices
	p.StoreOrder = order
	p.LowestPrice = domain.DeriveLowestPrice(order, prices)
	p.AvailableStores = domain.DeriveAvailableStores(order, prices)
	return p, true
}

// extractPrices detects the record schema. It reports false when the record carries no
// store price data in any known shape.
func extractPrices(rec gjson.Result) (map[string]domain.PriceEntry, []string, bool) {
	prices := make(map[string]domain.PriceEntry)
	var order []string
	add := func(store string, entry domain.PriceEntry) {
		if store == "" {
			return
		}
		if _, exists := prices[store]; exists {
			return
		}
		prices[store] = entry
		order = append(order, store)
	}

	if stores := rec.Get("stores"); stores.IsObject() {
		stores.ForEach(func(key, value gjson.Result) bool {
			store := StoreID(key.String())
			if value.IsObject() {
				add(store, priceEntry(value, "price"))
			} else {
				add(store, domain.PriceEntry{Price: optionalFloat(value)})
			}
			return true
		})
		return prices, order, true
	}

	if list := rec.Get("prijzen"); list.IsArray() {
		for _, item := range list.Array() {
			add(StoreID(item.Get("winkel").String()), priceEntry(item, "prijs"))
		}
		return prices, order, true
	}

	links := rec.Get("shop_links")
	found := false
	for _, f := range fixedPriceFields {
		v := rec.Get(f.field)
		if !v.Exists() {
			continue
		}
		found = true
		add(f.store, domain.PriceEntry{
			Price: optionalFloat(v),
			URL:   links.Get(f.store).String(),
		})
	}
	return prices, order, found
}

func priceEntry(v gjson.Result, priceKey string) domain.PriceEntry {
	entry := domain.PriceEntry{
		Price:              optionalFloat(v.Get(priceKey)),
		OriginalPrice:      optionalFloat(v.Get("original_price")),
		DiscountPercentage: optionalFloat(v.Get("discount_percentage")),
		URL:                v.Get("url").String(),
	}
	if stock := v.Get("in_stock"); stock.IsBool() {
		b := stock.Bool()
		entry.InStock = &b
	}
	return entry
}

// optionalFloat reads a JSON number or a numeric string ("3,49" included). Missing, null,
// negative or non-numeric values yield nil.
func optionalFloat(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "."), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f < 0 {
		return nil
	}
	return &f
}

func recordID(index int, rec gjson.Result) string {
	if barcode := strings.TrimSpace(rec.Get("barcode").String()); barcode != "" {
		return barcode
	}
	if id := rec.Get("id"); id.Type == gjson.String || id.Type == gjson.Number {
		if s := strings.TrimSpace(id.String()); s != "" {
			return s
		}
	}
	return fmt.Sprintf("product_%d", index)
}

func firstString(rec gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := rec.Get(key); v.Type == gjson.String {
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" && item.Type == gjson.String {
			out = append(out, s)
		}
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return domain.UnknownLabel
	}
	return s
}

func imageURL(raw, category string) string {
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return PlaceholderImage(category)
}

// sanitize strips markup that scrapers leave in descriptions
func (n *Normalizer) sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(n.sanitizer.Sanitize(s)))
}
