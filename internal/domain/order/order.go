package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

// Order lifecycle statuses assigned at checkout. Later fulfillment
// workflows move orders beyond these.
const (
	StatusPendingCOD   = "pending_cod"
	StatusWaitingAdmin = "waiting_admin"
)

// Payment methods and statuses.
const (
	MethodCOD        = "cod"
	MethodTransferQR = "transfer_qr"

	PaymentCODPending     = "cod_pending"
	PaymentProofSubmitted = "proof_submitted"
)

// CartItem is one requested line of a checkout.
type CartItem struct {
	ProductID string
	Quantity  int
	Variant   product.VariantSelector
}

// LineItem is a cart item frozen at checkout time: the name, unit price and
// image are snapshotted so later catalog edits never alter the order.
type LineItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Variant   product.VariantSelector
	Image     string
}

// Customer is the contact snapshot stored on the order.
type Customer struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Payment is the caller-declared payment intent. Only the method tag and a
// proof-of-payment URL are recorded; no gateway integration happens here.
type Payment struct {
	Method  string
	SlipURL string
}

// Pricing is the order's money breakdown, each amount rounded to 2 decimal
// places for storage.
type Pricing struct {
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	Discount         decimal.Decimal
	ShippingDiscount decimal.Decimal
	GrandTotal       decimal.Decimal
}

// ShippingOption describes how the order ships.
type ShippingOption struct {
	OptionID      string
	OptionName    string
	CalculatedFee decimal.Decimal
}

// Order is the durable record a successful checkout commits. Immutable once
// created except by later fulfillment workflows outside this core.
type Order struct {
	ID            string
	UserID        string
	Items         []LineItem
	Pricing       Pricing
	CouponCode    string
	Customer      Customer
	PaymentMethod string
	PaymentStatus string
	SlipURL       string
	Shipping      ShippingOption
	Status        string
	StockDeducted bool
	CreatedAt     time.Time
}

// Tx exposes the reads and writes available inside one checkout
// transaction. Implementations bind these to the store's transaction so
// that all of them observe one consistent snapshot and commit atomically.
type Tx interface {
	// GetProductForUpdate reads a product and locks it against concurrent
	// stock mutation for the remainder of the transaction.
	// Returns product.ErrNotFound when the product does not exist.
	GetProductForUpdate(ctx context.Context, id string) (*product.Product, error)

	// ApplyStockUpdate applies a relative stock decrement to the product.
	ApplyStockUpdate(ctx context.Context, productID string, upd product.StockUpdate) error

	// FindCoupon looks up a coupon by normalized code, locking its usage
	// counter row. Returns (nil, nil) when no such coupon exists.
	FindCoupon(ctx context.Context, code string) (*coupon.Coupon, error)

	// FindClaim looks up the user's claim for a normalized code, locking
	// it. Returns (nil, nil) when the user never claimed the coupon.
	FindClaim(ctx context.Context, userID, code string) (*coupon.Claim, error)

	// RedeemClaim stamps the claim with a redemption time and the consuming
	// order id. It fails if the claim is already redeemed.
	RedeemClaim(ctx context.Context, userID, code, orderID string) error

	// IncrementCouponUses bumps the coupon's global used count and the
	// per-user usage counter.
	IncrementCouponUses(ctx context.Context, code, userID string) error

	// CreateOrder persists the order with a server-assigned creation time.
	CreateOrder(ctx context.Context, o *Order) error
}

// Store runs checkout transactions and reads committed orders.
type Store interface {
	// InTx runs fn inside one transaction. Conflicting concurrent writes
	// cause the whole function to be retried from scratch up to a bound;
	// fn must therefore be free of external side effects.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetOrder reads a committed order by id.
	GetOrder(ctx context.Context, id string) (*Order, error)
}
