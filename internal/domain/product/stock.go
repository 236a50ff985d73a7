package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UpdateKind tags which stock shape a decrement targets.
type UpdateKind uint8

const (
	// UpdateTopLevel decrements the product's top-level stock counter.
	UpdateTopLevel UpdateKind = iota
	// UpdateMapEntry decrements a single stock_map entry.
	UpdateMapEntry
	// UpdateVariantIndex decrements the stock of one variants entry.
	UpdateVariantIndex
)

// StockUpdate is a relative decrement instruction targeting exactly the
// field tier ResolveStock read for the same (product, selector) pair.
// Expressing the change as a delta lets concurrently committing checkouts
// compose instead of overwriting each other.
type StockUpdate struct {
	Kind  UpdateKind
	Key   string // stock_map key, set for UpdateMapEntry
	Index int    // variants index, set for UpdateVariantIndex
	Delta int64  // negative for a decrement
}

// VariantKey builds the normalized stock_map key for a selector:
// lowercase color and size joined with "__", defaulting either side to
// "default" when unspecified.
func VariantKey(sel VariantSelector) string {
	color := strings.ToLower(strings.TrimSpace(sel.Color))
	if color == "" {
		color = "default"
	}
	size := strings.ToLower(strings.TrimSpace(sel.Size))
	if size == "" {
		size = "default"
	}
	return color + "__" + size
}

// stockSource describes where a product's sellable quantity for a selector
// was found. Resolver and Mutator both consume it, so they can never
// disagree about the authoritative tier.
type stockSource struct {
	kind      UpdateKind
	key       string
	index     int
	available decimal.Decimal
}

func resolveStockSource(p Product, sel VariantSelector) stockSource {
	if p.StockMap != nil {
		key := VariantKey(sel)
		if qty, ok := p.StockMap[key]; ok {
			return stockSource{kind: UpdateMapEntry, key: key, available: qty}
		}
	}

	if idx := matchVariant(p.Variants, sel); idx >= 0 && p.Variants[idx].Stock != nil {
		return stockSource{
			kind:      UpdateVariantIndex,
			index:     idx,
			available: decimal.NewFromInt(*p.Variants[idx].Stock),
		}
	}

	var top decimal.Decimal
	if p.Stock != nil {
		top = decimal.NewFromInt(*p.Stock)
	}
	return stockSource{kind: UpdateTopLevel, available: top}
}

// matchVariant returns the index of the first variants entry matching the
// selector, or -1. An empty color/size set on the entry, or an unspecified
// selector field, matches anything on that dimension; comparisons are
// case-insensitive.
func matchVariant(variants []Variant, sel VariantSelector) int {
	for i, v := range variants {
		if matchDimension(v.Colors, sel.Color) && matchDimension(v.Sizes, sel.Size) {
			return i
		}
	}
	return -1
}

func matchDimension(set []string, want string) bool {
	if want == "" || len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// ResolveStock returns the currently sellable quantity for the requested
// variant. Precedence, first match wins: stock_map entry, matching variants
// entry with numeric stock, top-level stock. Missing or malformed values
// resolve to zero. Pure function of its inputs.
func ResolveStock(p Product, sel VariantSelector) decimal.Decimal {
	return resolveStockSource(p, sel).available
}

// BuildStockUpdate returns the decrement instruction for the field tier
// ResolveStock would read for the same selector, reducing it by qty.
func BuildStockUpdate(p Product, sel VariantSelector, qty int) StockUpdate {
	src := resolveStockSource(p, sel)
	return StockUpdate{
		Kind:  src.kind,
		Key:   src.key,
		Index: src.index,
		Delta: -int64(qty),
	}
}
