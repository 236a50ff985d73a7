package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MerchandiseDiscount computes the discount a non-shipping coupon grants
// against the merchandise subtotal: percent or fixed value, capped by
// MaxDiscount when set, then clamped to [0, subtotal].
func MerchandiseDiscount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case TypePercent:
		d = subtotal.Mul(c.Value).Div(hundred)
	case TypeFixed:
		d = c.Value
	default:
		return decimal.Zero
	}
	return clampDiscount(d, c.MaxDiscount, subtotal)
}

// ShippingDiscount computes the discount a shipping_ coupon grants against
// the shipping fee, capped by MaxDiscount when set, then clamped to
// [0, shippingFee].
func ShippingDiscount(c *Coupon, shippingFee decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case TypeShippingFixed:
		d = c.Value
	case TypeShippingPercent:
		d = shippingFee.Mul(c.Value).Div(hundred)
	case TypeShippingFull:
		d = shippingFee
	default:
		return decimal.Zero
	}
	return clampDiscount(d, c.MaxDiscount, shippingFee)
}

// clampDiscount applies the optional cap and clamps the result to
// [0, limit]. Negative and oversized inputs always land inside the range.
func clampDiscount(d decimal.Decimal, capAmount *decimal.Decimal, limit decimal.Decimal) decimal.Decimal {
	if capAmount != nil {
		d = decimal.Min(d, *capAmount)
	}
	d = decimal.Min(d, limit)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
