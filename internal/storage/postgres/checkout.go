package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

// txMaxRetries bounds re-execution of a checkout transaction after a
// serialization conflict.
const txMaxRetries = 3

const (
	getProductForUpdateSQL = `SELECT id, name, price, images, stock, stock_map, variants
		FROM products WHERE id = $1 FOR UPDATE`

	decrementTopStockSQL = `UPDATE products SET stock = COALESCE(stock, 0) + $2
		WHERE id = $1`

	decrementMapStockSQL = `UPDATE products
		SET stock_map = jsonb_set(COALESCE(stock_map, '{}'::jsonb), ARRAY[$2],
			to_jsonb(COALESCE((stock_map ->> $2)::numeric, 0) + $3))
		WHERE id = $1`

	// The tier index parameter stays int-typed in both uses: subscripting a
	// jsonb array with a text value is field access and yields NULL, which
	// would turn the relative decrement into an absolute write.
	decrementVariantStockSQL = `UPDATE products
		SET variants = jsonb_set(variants, ARRAY[($2::int)::text, 'stock'],
			to_jsonb(COALESCE((variants -> ($2::int) ->> 'stock')::numeric, 0) + $3))
		WHERE id = $1`

	getCouponForUpdateSQL = `SELECT code, active, expires_at, min_spend,
		usage_limit, used_count, per_user_limit, discount_type, value, max_discount
		FROM coupons WHERE UPPER(code) = UPPER($1) FOR UPDATE`

	getClaimForUpdateSQL = `SELECT user_id, code, claimed_at, redeemed_at, used_in_order_id
		FROM claimed_coupons WHERE user_id = $1 AND code = $2 FOR UPDATE`

	redeemClaimSQL = `UPDATE claimed_coupons
		SET redeemed_at = now(), used_in_order_id = $3
		WHERE user_id = $1 AND code = $2 AND redeemed_at IS NULL`

	incrementUsedCountSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE code = $1`

	upsertUserUsageSQL = `INSERT INTO coupon_usages (code, user_id, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (code, user_id) DO UPDATE SET count = coupon_usages.count + 1`

	createOrderSQL = `INSERT INTO orders (id, user_id, items, subtotal,
		shipping_fee, discount, shipping_discount, grand_total, coupon_code,
		customer, payment_method, payment_status, slip_url, shipping_option,
		status, stock_deducted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	getOrderSQL = `SELECT id, user_id, items, subtotal, shipping_fee, discount,
		shipping_discount, grand_total, coupon_code, customer, payment_method,
		payment_status, slip_url, shipping_option, status, stock_deducted, created_at
		FROM orders WHERE id = $1`
)

var _ order.Store = (*CheckoutStore)(nil)

// CheckoutStore implements order.Store backed by PostgreSQL. Checkout runs
// at REPEATABLE READ with all product rows locked FOR UPDATE, so two
// concurrent orders for the same product serialize on the row lock and the
// loser re-reads stock after the winner's decrement commits.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// InTx runs fn inside one REPEATABLE READ transaction, retrying the whole
// function on serialization failures up to txMaxRetries times. fn must be
// free of external side effects.
func (s *CheckoutStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	var err error
	for attempt := 0; attempt <= txMaxRetries; attempt++ {
		err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead},
			func(tx pgx.Tx) error {
				return fn(&checkoutTx{tx: tx})
			})
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("checkout transaction retries exhausted: %w", err)
}

// isSerializationFailure reports whether the error is a transient conflict
// worth retrying: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// GetOrder reads a committed order by id.
func (s *CheckoutStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %q not found: %w", id, err)
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// checkoutTx implements order.Tx on one pgx transaction.
type checkoutTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*checkoutTx)(nil)

func (t *checkoutTx) GetProductForUpdate(ctx context.Context, id string) (*product.Product, error) {
	rows, err := t.tx.Query(ctx, getProductForUpdateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("locking product %q: %w", id, err)
	}
	return &p, nil
}

func (t *checkoutTx) ApplyStockUpdate(ctx context.Context, productID string, upd product.StockUpdate) error {
	var err error
	switch upd.Kind {
	case product.UpdateMapEntry:
		_, err = t.tx.Exec(ctx, decrementMapStockSQL, productID, upd.Key, upd.Delta)
	case product.UpdateVariantIndex:
		_, err = t.tx.Exec(ctx, decrementVariantStockSQL, productID, upd.Index, upd.Delta)
	default:
		_, err = t.tx.Exec(ctx, decrementTopStockSQL, productID, upd.Delta)
	}
	if err != nil {
		return fmt.Errorf("updating stock of product %q: %w", productID, err)
	}
	return nil
}

func (t *checkoutTx) FindCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := t.tx.Query(ctx, getCouponForUpdateSQL, code)
	if err != nil {
		return nil, fmt.Errorf("locking coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking coupon %q: %w", code, err)
	}
	return &c, nil
}

func (t *checkoutTx) FindClaim(ctx context.Context, userID, code string) (*coupon.Claim, error) {
	var c coupon.Claim
	err := t.tx.QueryRow(ctx, getClaimForUpdateSQL, userID, code).Scan(
		&c.UserID, &c.Code, &c.ClaimedAt, &c.RedeemedAt, &c.UsedInOrderID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking claim of coupon %q: %w", code, err)
	}
	return &c, nil
}

func (t *checkoutTx) RedeemClaim(ctx context.Context, userID, code, orderID string) error {
	tag, err := t.tx.Exec(ctx, redeemClaimSQL, userID, code, orderID)
	if err != nil {
		return fmt.Errorf("redeeming claim of coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim of coupon %q is not redeemable", code)
	}
	return nil
}

func (t *checkoutTx) IncrementCouponUses(ctx context.Context, code, userID string) error {
	if _, err := t.tx.Exec(ctx, incrementUsedCountSQL, code); err != nil {
		return fmt.Errorf("incrementing used count of coupon %q: %w", code, err)
	}
	if _, err := t.tx.Exec(ctx, upsertUserUsageSQL, code, userID); err != nil {
		return fmt.Errorf("incrementing user usage of coupon %q: %w", code, err)
	}
	return nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, o *order.Order) error {
	items, err := encodeLineItems(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	customer, err := encodeCustomer(o.Customer)
	if err != nil {
		return fmt.Errorf("marshaling order customer: %w", err)
	}
	shipping, err := encodeShipping(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling shipping option: %w", err)
	}

	_, err = t.tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, items,
		o.Pricing.Subtotal, o.Pricing.ShippingFee, o.Pricing.Discount,
		o.Pricing.ShippingDiscount, o.Pricing.GrandTotal,
		o.CouponCode, customer, o.PaymentMethod, o.PaymentStatus,
		o.SlipURL, shipping, o.Status, o.StockDeducted,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o                                            order.Order
		items, customer, shipping                    []byte
		subtotal, fee, discount, shipDiscount, total decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &items, &subtotal, &fee, &discount,
		&shipDiscount, &total, &o.CouponCode, &customer, &o.PaymentMethod,
		&o.PaymentStatus, &o.SlipURL, &shipping, &o.Status, &o.StockDeducted,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Pricing = order.Pricing{
		Subtotal:         subtotal,
		ShippingFee:      fee,
		Discount:         discount,
		ShippingDiscount: shipDiscount,
		GrandTotal:       total,
	}
	if o.Items, err = decodeLineItems(items); err != nil {
		return nil, err
	}
	if o.Customer, err = decodeCustomer(customer); err != nil {
		return nil, err
	}
	if o.Shipping, err = decodeShipping(shipping); err != nil {
		return nil, err
	}
	return &o, nil
}
