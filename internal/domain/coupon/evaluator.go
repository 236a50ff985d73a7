package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
)

// Preview reason codes. Business rejections on the preview path are data,
// not errors: callers receive {ok:false, reason} and decide what to show.
const (
	ReasonNotFound     = "NOT_FOUND"
	ReasonInactive     = "INACTIVE"
	ReasonExpired      = "EXPIRED"
	ReasonMinSpend     = "MIN_SPEND"
	ReasonLimitReached = "LIMIT_REACHED"
	ReasonPerUserLimit = "PER_USER_LIMIT"
)

// PreviewResult is the outcome of estimating a coupon discount without
// commitment.
type PreviewResult struct {
	OK       bool
	Reason   string
	Discount decimal.Decimal
}

func rejected(reason string) PreviewResult {
	return PreviewResult{Reason: reason}
}

// Evaluator checks coupon applicability and computes discounts. The preview
// path reads through a Repository; the transactional path (Evaluate) is a
// pure function over data the order transaction has already loaded.
type Evaluator struct {
	repo Repository
	now  func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given Repository.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo, now: time.Now}
}

// Preview estimates the merchandise discount the coupon would grant on the
// given subtotal. It has no side effects and never returns an error for an
// expected business rejection.
func (e *Evaluator) Preview(ctx context.Context, userID, code string, subtotal decimal.Decimal) (PreviewResult, error) {
	c, err := e.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected(ReasonNotFound), nil
		}
		return PreviewResult{}, errors.Wrap(err, "lookup coupon")
	}

	if !c.Active {
		return rejected(ReasonInactive), nil
	}
	if c.Expired(e.now()) {
		return rejected(ReasonExpired), nil
	}
	if c.MinSpend != nil && subtotal.LessThan(*c.MinSpend) {
		return rejected(ReasonMinSpend), nil
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return rejected(ReasonLimitReached), nil
	}

	if c.PerUserLimit != nil {
		used, err := e.repo.UserUsageCount(ctx, c.Code, userID)
		if err != nil {
			return PreviewResult{}, errors.Wrap(err, "count user redemptions")
		}
		if used >= *c.PerUserLimit {
			return rejected(ReasonPerUserLimit), nil
		}
	}

	return PreviewResult{
		OK:       true,
		Discount: MerchandiseDiscount(c, subtotal),
	}, nil
}

// EvalInput is the data the order transaction has loaded for transactional
// coupon evaluation. Coupon and Claim are nil when the respective record
// does not exist.
type EvalInput struct {
	Coupon      *Coupon
	Claim       *Claim
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Now         time.Time
}

// EvalResult carries the applied code and exactly one non-zero discount
// (merchandise or shipping, by discount type).
type EvalResult struct {
	Code             string
	ProductDiscount  decimal.Decimal
	ShippingDiscount decimal.Decimal
}

// Evaluate validates a coupon inside the order transaction and computes its
// discount. The claim must exist and be unredeemed; the coupon must pass
// every preview-mode check; a coupon whose final discount is zero is
// rejected as not applicable. Rejections are *fault.Error values that abort
// the whole order transaction.
func Evaluate(in EvalInput) (EvalResult, error) {
	if in.Claim == nil {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponNotClaimed)
	}
	if in.Claim.Redeemed() {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponAlreadyUsed)
	}

	c := in.Coupon
	if c == nil {
		return EvalResult{}, fault.New(fault.NotFound, fault.ReasonCouponNotFound)
	}
	if !c.Active {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponInactive)
	}
	if c.Expired(in.Now) {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponExpired)
	}
	if c.MinSpend != nil && in.Subtotal.LessThan(*c.MinSpend) {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponMinSpend)
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponLimitReached)
	}
	// A claim is unique per user and code and redeemable once, so a caller
	// holding an unredeemed claim has zero prior redemptions. Only a
	// non-positive limit can still exclude them.
	if c.PerUserLimit != nil && *c.PerUserLimit < 1 {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponPerUserLimit)
	}

	res := EvalResult{Code: c.Code}
	if c.Type.Shipping() {
		res.ShippingDiscount = ShippingDiscount(c, in.ShippingFee)
	} else {
		res.ProductDiscount = MerchandiseDiscount(c, in.Subtotal)
	}

	if res.ProductDiscount.Add(res.ShippingDiscount).LessThanOrEqual(decimal.Zero) {
		return EvalResult{}, fault.New(fault.FailedPrecondition, fault.ReasonCouponNotApplicable)
	}

	return res, nil
}
