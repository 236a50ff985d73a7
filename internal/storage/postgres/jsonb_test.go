package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

func TestDecodeStockMap(t *testing.T) {
	m := decodeStockMap([]byte(`{"red__m": 2, "blue__l": "oops", "black__s": "3"}`))
	require.Len(t, m, 3)

	assert.True(t, m["red__m"].Equal(decimal.NewFromInt(2)))
	// Malformed value decodes as zero but the key survives.
	assert.True(t, m["blue__l"].IsZero())
	// Quoted numbers are accepted.
	assert.True(t, m["black__s"].Equal(decimal.NewFromInt(3)))

	assert.Nil(t, decodeStockMap(nil))
	assert.Nil(t, decodeStockMap([]byte(`not json`)))
}

func TestDecodeVariants(t *testing.T) {
	variants := decodeVariants([]byte(`[
		{"colors": ["red"], "sizes": ["m"], "stock": 5},
		{"colors": ["blue"], "stock": "many"},
		{"sizes": ["l"], "stock": null},
		{"colors": ["black"]}
	]`))
	require.Len(t, variants, 4)

	require.NotNil(t, variants[0].Stock)
	assert.Equal(t, int64(5), *variants[0].Stock)

	// Non-numeric, null and absent stock all mean "no numeric stock".
	assert.Nil(t, variants[1].Stock)
	assert.Nil(t, variants[2].Stock)
	assert.Nil(t, variants[3].Stock)
}

func TestLineItemsRoundTrip(t *testing.T) {
	items := []order.LineItem{
		{
			ProductID: "P1",
			Name:      "Shirt",
			Price:     decimal.RequireFromString("100"),
			Quantity:  2,
			Variant:   product.VariantSelector{Color: "red", Size: "m"},
			Image:     "https://cdn.example.com/p1.jpg",
		},
		{ProductID: "P2", Name: "Mug", Price: decimal.RequireFromString("25.50"), Quantity: 1},
	}

	raw, err := encodeLineItems(items)
	require.NoError(t, err)

	got, err := decodeLineItems(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, items[0].ProductID, got[0].ProductID)
	assert.Equal(t, items[0].Variant, got[0].Variant)
	assert.True(t, items[0].Price.Equal(got[0].Price))
	assert.Equal(t, items[1].Quantity, got[1].Quantity)
}
