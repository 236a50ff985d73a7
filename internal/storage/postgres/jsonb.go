package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

// Catalog data arrives from an external admin tool, so the JSONB documents
// are decoded defensively: a malformed stock value degrades to "no stock"
// instead of failing the read.

func decodeImages(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil
	}
	return images
}

// decodeStockMap keeps every key of the document. A value that does not
// parse as a number counts as zero stock, but its key still marks the map
// as the authoritative stock source for that variant.
func decodeStockMap(raw []byte) map[string]decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	m := make(map[string]decimal.Decimal, len(doc))
	for k, v := range doc {
		var d decimal.Decimal
		if err := json.Unmarshal(v, &d); err != nil {
			d = decimal.Zero
		}
		m[k] = d
	}
	return m
}

type variantDoc struct {
	Colors []string        `json:"colors"`
	Sizes  []string        `json:"sizes"`
	Stock  json.RawMessage `json:"stock"`
}

// decodeVariants drops nothing: an entry whose stock is missing or
// non-numeric is kept with nil stock so matching still sees it.
func decodeVariants(raw []byte) []product.Variant {
	if len(raw) == 0 {
		return nil
	}
	var docs []variantDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil
	}
	variants := make([]product.Variant, 0, len(docs))
	for _, d := range docs {
		v := product.Variant{Colors: d.Colors, Sizes: d.Sizes}
		// Unmarshal treats JSON null as a no-op, so screen it out first.
		if len(d.Stock) > 0 && string(d.Stock) != "null" {
			var stock int64
			if err := json.Unmarshal(d.Stock, &stock); err == nil {
				v.Stock = &stock
			}
		}
		variants = append(variants, v)
	}
	return variants
}

type lineItemDoc struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	Image     string          `json:"image,omitempty"`
}

func encodeLineItems(items []order.LineItem) ([]byte, error) {
	docs := make([]lineItemDoc, 0, len(items))
	for _, it := range items {
		docs = append(docs, lineItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Color:     it.Variant.Color,
			Size:      it.Variant.Size,
			Image:     it.Image,
		})
	}
	return json.Marshal(docs)
}

func decodeLineItems(raw []byte) ([]order.LineItem, error) {
	var docs []lineItemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decoding order items: %w", err)
	}
	items := make([]order.LineItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, order.LineItem{
			ProductID: d.ProductID,
			Name:      d.Name,
			Price:     d.Price,
			Quantity:  d.Quantity,
			Variant:   product.VariantSelector{Color: d.Color, Size: d.Size},
			Image:     d.Image,
		})
	}
	return items, nil
}

type customerDoc struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func encodeCustomer(c order.Customer) ([]byte, error) {
	return json.Marshal(customerDoc(c))
}

func decodeCustomer(raw []byte) (order.Customer, error) {
	var doc customerDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return order.Customer{}, fmt.Errorf("decoding order customer: %w", err)
	}
	return order.Customer(doc), nil
}

type shippingDoc struct {
	OptionID      string          `json:"optionId"`
	OptionName    string          `json:"optionName"`
	CalculatedFee decimal.Decimal `json:"calculatedFee"`
}

func encodeShipping(s order.ShippingOption) ([]byte, error) {
	return json.Marshal(shippingDoc(s))
}

func decodeShipping(raw []byte) (order.ShippingOption, error) {
	var doc shippingDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return order.ShippingOption{}, fmt.Errorf("decoding shipping option: %w", err)
	}
	return order.ShippingOption(doc), nil
}
