// Package handler exposes the checkout core over HTTP. Requests and
// responses are plain JSON encoded with go-faster/jx; business rejections
// surface either as {ok:false, reason} previews or as structured
// {error:{category, reason}} bodies with mapped status codes.
package handler

import (
	"net/http"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
	"github.com/xenking/lumine-checkout/internal/upload"
)

// Handler routes API requests to the domain services.
type Handler struct {
	products product.Repository
	coupons  *coupon.Evaluator
	orders   *order.Service
	uploads  *upload.Client
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	coupons *coupon.Evaluator,
	orders *order.Service,
	uploads *upload.Client,
) *Handler {
	return &Handler{
		products: products,
		coupons:  coupons,
		orders:   orders,
		uploads:  uploads,
	}
}

// Register mounts the API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/coupons/apply", h.ApplyCoupon)
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("POST /api/uploads/images", h.UploadImages)
}
