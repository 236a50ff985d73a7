package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Sellable stock
// may live in any of three shapes: a per-variant stock map, the variants
// list, or the top-level Stock counter. Exactly one shape is authoritative
// for a given (product, selector) pair; see ResolveStock.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Images []string

	// Stock is the top-level counter. Nil when the column is absent or
	// non-numeric; resolution treats that as zero.
	Stock *int64

	// StockMap maps a normalized "color__size" key to its stock count.
	// Nil when the product has no stock map. Malformed values are decoded
	// as zero but the key's presence still makes the map authoritative.
	StockMap map[string]decimal.Decimal

	Variants []Variant
}

// Variant is one entry of a product's variants list. Empty Colors or Sizes
// means the entry matches any requested color or size.
type Variant struct {
	Colors []string
	Sizes  []string

	// Stock is nil when the entry has no numeric stock, in which case the
	// entry never becomes the authoritative stock source.
	Stock *int64
}

// VariantSelector identifies the variant a cart item requests. Both fields
// are optional; an empty field matches any variant on that dimension.
type VariantSelector struct {
	Color string
	Size  string
}

// Repository defines read operations for the product catalog outside the
// checkout transaction.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
