package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, active, expires_at, min_spend,
		usage_limit, used_count, per_user_limit, discount_type, value, max_discount
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	getUserUsageCountSQL = `SELECT count FROM coupon_usages
		WHERE code = $1 AND user_id = $2`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL. The
// preview path reads through here without row locks; checkout uses the
// transactional lookups on CheckoutStore instead.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no matching coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// UserUsageCount returns how many times the user has redeemed the coupon.
// A missing counter row means zero redemptions.
func (r *CouponRepository) UserUsageCount(ctx context.Context, code, userID string) (int, error) {
	var count int32
	err := r.pool.QueryRow(ctx, getUserUsageCountSQL, code, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("counting usages of coupon %q: %w", code, err)
	}
	return int(count), nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		expiresAt    *time.Time
		minSpend     *decimal.Decimal
		usageLimit   *int32
		usedCount    int32
		perUserLimit *int32
		discountType string
		maxDiscount  *decimal.Decimal
	)
	err := row.Scan(
		&c.Code, &c.Active, &expiresAt, &minSpend,
		&usageLimit, &usedCount, &perUserLimit, &discountType, &c.Value, &maxDiscount,
	)
	c.ExpiresAt = expiresAt
	c.MinSpend = minSpend
	c.UsageLimit = intPtrOf(usageLimit)
	c.UsedCount = int(usedCount)
	c.PerUserLimit = intPtrOf(perUserLimit)
	c.Type = coupon.DiscountType(discountType)
	c.MaxDiscount = maxDiscount
	return c, err
}

func intPtrOf(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
