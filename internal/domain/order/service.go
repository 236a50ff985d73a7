package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/domain/fault"
	"github.com/xenking/lumine-checkout/internal/domain/notification"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

// CreateOrderRequest holds the input for placing an order. CallerID is the
// authenticated identity; UserID is the identity the order is declared for.
type CreateOrderRequest struct {
	CallerID    string
	UserID      string
	Items       []CartItem
	CouponCode  string
	Customer    Customer
	ShippingFee decimal.Decimal
	Payment     Payment
}

// CreateOrderResult is the output of a successfully placed order.
type CreateOrderResult struct {
	OrderID  string
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// Service is the checkout orchestrator: it validates the cart, prices it,
// applies a claimed coupon, decrements stock, and commits the order as one
// atomic unit of work, then fires the admin notification outside the
// transaction.
type Service struct {
	store    Store
	notifier notification.Upserter
	now      func() time.Time
}

// NewService creates the checkout service.
func NewService(store Store, notifier notification.Upserter) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateOrder runs the full checkout. Every step between the first product
// read and the coupon redemption happens inside one store transaction: an
// abort at any point leaves stock, claims and orders untouched. Business
// rejections surface as *fault.Error with stable reason codes.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.CallerID == "" || req.CallerID != req.UserID {
		return nil, fault.New(fault.Unauthorized, fault.ReasonUnauthorized)
	}
	if len(req.Items) == 0 {
		return nil, fault.New(fault.InvalidArgument, fault.ReasonEmptyCart)
	}

	// The id is fixed before the transaction so retries reuse it; nothing
	// is visible under it until commit.
	orderID := uuid.New().String()

	var result *CreateOrderResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		res, err := s.checkout(ctx, tx, orderID, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, fault.From(err)
	}

	// Post-commit, best-effort: the order stands regardless of what
	// happens here. Single attempt, failures logged only.
	s.notifyAdmin(ctx, orderID)

	return result, nil
}

// checkout is the transactional body of CreateOrder. It must stay free of
// side effects outside tx: the store may re-execute it on conflict.
func (s *Service) checkout(ctx context.Context, tx Tx, orderID string, req CreateOrderRequest) (*CreateOrderResult, error) {
	// Price pass: verify availability and snapshot line items.
	subtotal := decimal.Zero
	items := make([]LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fault.New(fault.InvalidArgument, fault.ReasonBadItem)
		}

		p, err := tx.GetProductForUpdate(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, fault.WithProduct(fault.FailedPrecondition, fault.ReasonProductGone, it.ProductID)
			}
			return nil, err
		}

		available := product.ResolveStock(*p, it.Variant)
		if available.LessThan(decimal.NewFromInt(int64(it.Quantity))) {
			return nil, fault.WithProduct(fault.FailedPrecondition, fault.ReasonOutOfStock, it.ProductID)
		}

		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(p.Price.Mul(qty))

		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, LineItem{
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
			Image:     image,
		})
	}

	shippingFee := clampMoney(req.ShippingFee)

	// Coupon pass.
	productDiscount, shippingDiscount := decimal.Zero, decimal.Zero
	appliedCode := ""
	if req.CouponCode != "" {
		code := coupon.NormalizeCode(req.CouponCode)

		claim, err := tx.FindClaim(ctx, req.UserID, code)
		if err != nil {
			return nil, err
		}
		c, err := tx.FindCoupon(ctx, code)
		if err != nil {
			return nil, err
		}

		res, err := coupon.Evaluate(coupon.EvalInput{
			Coupon:      c,
			Claim:       claim,
			Subtotal:    subtotal,
			ShippingFee: shippingFee,
			Now:         s.now(),
		})
		if err != nil {
			return nil, err
		}

		productDiscount = res.ProductDiscount
		shippingDiscount = res.ShippingDiscount
		appliedCode = res.Code
	}

	grandTotal := clampMoney(subtotal.Sub(productDiscount)).
		Add(clampMoney(shippingFee.Sub(shippingDiscount)))

	// Deduction pass: each product must still exist. A miss here is
	// distinct from the price pass's, since availability was already
	// verified against this transaction's snapshot.
	for _, it := range req.Items {
		p, err := tx.GetProductForUpdate(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, fault.WithProduct(fault.FailedPrecondition, fault.ReasonProductVanish, it.ProductID)
			}
			return nil, err
		}

		upd := product.BuildStockUpdate(*p, it.Variant, it.Quantity)
		if err := tx.ApplyStockUpdate(ctx, it.ProductID, upd); err != nil {
			return nil, err
		}
	}

	o := &Order{
		ID:     orderID,
		UserID: req.UserID,
		Items:  items,
		Pricing: Pricing{
			Subtotal:         subtotal.Round(2),
			ShippingFee:      shippingFee.Round(2),
			Discount:         productDiscount.Round(2),
			ShippingDiscount: shippingDiscount.Round(2),
			GrandTotal:       grandTotal.Round(2),
		},
		CouponCode:    appliedCode,
		Customer:      req.Customer,
		StockDeducted: true,
	}
	applyPaymentMethod(o, req.Payment, shippingFee)

	if err := tx.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	if appliedCode != "" {
		if err := tx.RedeemClaim(ctx, req.UserID, appliedCode, orderID); err != nil {
			return nil, err
		}
		if err := tx.IncrementCouponUses(ctx, appliedCode, req.UserID); err != nil {
			return nil, err
		}
	}

	return &CreateOrderResult{
		OrderID:  orderID,
		Subtotal: subtotal,
		Total:    grandTotal,
	}, nil
}

// applyPaymentMethod fills the payment, shipping and status fields from the
// declared method: cod orders await collection, everything else awaits
// admin review of the submitted proof.
func applyPaymentMethod(o *Order, p Payment, shippingFee decimal.Decimal) {
	if p.Method == MethodCOD {
		o.PaymentMethod = MethodCOD
		o.PaymentStatus = PaymentCODPending
		o.Status = StatusPendingCOD
		o.Shipping = ShippingOption{
			OptionID:      "cod",
			OptionName:    "Cash on Delivery",
			CalculatedFee: shippingFee,
		}
		return
	}

	o.PaymentMethod = MethodTransferQR
	o.PaymentStatus = PaymentProofSubmitted
	o.SlipURL = p.SlipURL
	o.Status = StatusWaitingAdmin
	o.Shipping = ShippingOption{
		OptionID:      "standard",
		OptionName:    "Standard Delivery",
		CalculatedFee: shippingFee,
	}
}

// notifyAdmin re-reads the committed order and upserts the admin
// notification. Fire-and-forget: a failure is logged and never surfaced.
func (s *Service) notifyAdmin(ctx context.Context, orderID string) {
	lg := zctx.From(ctx)

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		lg.Error("read order for admin notification",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}

	n := notification.NewOrderNotification(o.ID, o.Pricing.GrandTotal, o.Customer.Name)
	if err := s.notifier.Upsert(ctx, n); err != nil {
		lg.Error("upsert admin notification",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}
	lg.Info("admin notification upserted", zap.String("order_id", orderID))
}

// clampMoney floors a monetary amount at zero.
func clampMoney(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
