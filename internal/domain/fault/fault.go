// Package fault defines the structured errors surfaced to checkout callers:
// a short category plus a stable machine-readable reason code. Expected
// business rejections (out of stock, coupon invalid) travel as values of
// this type; anything else is classified as internal before it leaves the
// transaction boundary.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the coarse error class, mapped to an HTTP status by the
// transport layer.
type Category string

const (
	Unauthorized       Category = "unauthorized"
	InvalidArgument    Category = "invalid_argument"
	FailedPrecondition Category = "failed_precondition"
	NotFound           Category = "not_found"
	Internal           Category = "internal"
)

// Stable reason codes. Codes that identify a product carry the product id
// as a ":<id>" suffix (see WithProduct).
const (
	ReasonUnauthorized  = "UNAUTHORIZED"
	ReasonInvalidInput  = "INVALID_INPUT"
	ReasonEmptyCart     = "EMPTY_CART"
	ReasonBadItem       = "BAD_ITEM"
	ReasonInternal      = "INTERNAL"
	ReasonProductGone   = "PRODUCT_NOT_FOUND"
	ReasonProductVanish = "PRODUCT_NOT_FOUND_AFTER_CHECK"
	ReasonOutOfStock    = "OUT_OF_STOCK"

	ReasonCouponNotClaimed    = "COUPON_NOT_CLAIMED"
	ReasonCouponAlreadyUsed   = "COUPON_ALREADY_USED"
	ReasonCouponNotFound      = "COUPON_NOT_FOUND"
	ReasonCouponInactive      = "COUPON_INACTIVE"
	ReasonCouponExpired       = "COUPON_EXPIRED"
	ReasonCouponMinSpend      = "COUPON_MIN_SPEND"
	ReasonCouponLimitReached  = "COUPON_LIMIT_REACHED"
	ReasonCouponPerUserLimit  = "COUPON_PER_USER_LIMIT"
	ReasonCouponNotApplicable = "COUPON_NOT_APPLICABLE"
)

// Error is a structured failure with a stable reason code. It carries no
// internal state; the wrapped cause (if any) is for logs only and is never
// rendered to callers.
type Error struct {
	Category Category
	Reason   string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Category, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a fault with the given category and reason code.
func New(c Category, reason string) *Error {
	return &Error{Category: c, Reason: reason}
}

// WithProduct creates a fault whose reason is tagged with the offending
// product id, e.g. "OUT_OF_STOCK:P1".
func WithProduct(c Category, reason, productID string) *Error {
	return &Error{Category: c, Reason: reason + ":" + productID}
}

// Wrap attaches a cause to a fault for logging purposes.
func Wrap(c Category, reason string, cause error) *Error {
	return &Error{Category: c, Reason: reason, cause: cause}
}

// From classifies an arbitrary error from inside the order transaction.
// Faults pass through unchanged. A generic error whose message carries the
// out-of-stock signature is reclassified as the OUT_OF_STOCK precondition;
// everything else becomes an internal fault wrapping the original.
func From(err error) *Error {
	var f *Error
	if errors.As(err, &f) {
		return f
	}
	if strings.Contains(err.Error(), ReasonOutOfStock) {
		return Wrap(FailedPrecondition, ReasonOutOfStock, err)
	}
	return Wrap(Internal, ReasonInternal, err)
}

// ReasonOf returns the reason code of err, or ReasonInternal when err is
// not a fault.
func ReasonOf(err error) string {
	var f *Error
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonInternal
}

// Is reports whether err is a fault with the given reason code, ignoring
// any product-id suffix.
func Is(err error, reason string) bool {
	var f *Error
	if !errors.As(err, &f) {
		return false
	}
	return f.Reason == reason || strings.HasPrefix(f.Reason, reason+":")
}
