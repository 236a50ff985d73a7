package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no coupon exists for a normalized code.
var ErrNotFound = errors.New("coupon not found")

// DiscountType enumerates the supported coupon discount strategies.
// Types carrying the "shipping_" prefix discount the shipping fee; all
// others discount the merchandise subtotal. The two are mutually
// exclusive per coupon.
type DiscountType string

const (
	// TypePercent discounts value% of the merchandise subtotal.
	TypePercent DiscountType = "percent"
	// TypeFixed discounts a flat amount off the merchandise subtotal.
	TypeFixed DiscountType = "fixed"
	// TypeShippingFixed discounts a flat amount off the shipping fee.
	TypeShippingFixed DiscountType = "shipping_fixed"
	// TypeShippingPercent discounts value% of the shipping fee.
	TypeShippingPercent DiscountType = "shipping_percent"
	// TypeShippingFull waives the entire shipping fee.
	TypeShippingFull DiscountType = "shipping_full"
)

// Shipping reports whether the type discounts the shipping fee rather than
// the merchandise subtotal.
func (t DiscountType) Shipping() bool {
	return strings.HasPrefix(string(t), "shipping_")
}

// Coupon is an externally administered discount rule. This core only
// mutates its redemption bookkeeping (usage counters, per-user claims).
type Coupon struct {
	Code   string
	Active bool

	// ExpiresAt nil means the coupon never expires.
	ExpiresAt *time.Time

	// MinSpend, when set, is the minimum merchandise subtotal required.
	MinSpend *decimal.Decimal

	// UsageLimit, when set, caps total redemptions across all users;
	// UsedCount tracks redemptions so far.
	UsageLimit *int
	UsedCount  int

	// PerUserLimit, when set, caps redemptions per user.
	PerUserLimit *int

	Type  DiscountType
	Value decimal.Decimal

	// MaxDiscount, when set, caps the computed discount amount.
	MaxDiscount *decimal.Decimal
}

// Expired reports whether the coupon is past its expiry at the given time.
// A missing expiry never expires.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Claim records that a user obtained a coupon. Redemption is the one-time
// act of consuming the claim against an order: once RedeemedAt is set the
// claim is permanently spent for that user.
type Claim struct {
	UserID        string
	Code          string
	ClaimedAt     time.Time
	RedeemedAt    *time.Time
	UsedInOrderID string
}

// Redeemed reports whether the claim has already been consumed.
func (c *Claim) Redeemed() bool { return c.RedeemedAt != nil }

// NormalizeCode canonicalizes a user-supplied coupon code: surrounding
// whitespace stripped, upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides coupon lookups outside the checkout transaction,
// used by the preview path.
type Repository interface {
	// FindByCode looks up a coupon by its normalized code.
	// Returns ErrNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// UserUsageCount returns how many times the user has redeemed the coupon.
	UserUsageCount(ctx context.Context, code, userID string) (int, error)
}
