package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
)

type applyCouponRequest struct {
	UserID   string
	Code     string
	Subtotal decimal.Decimal
}

func decodeApplyCouponRequest(data []byte) (applyCouponRequest, error) {
	var req applyCouponRequest
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			req.UserID, err = d.Str()
		case "code":
			req.Code, err = d.Str()
		case "subtotal":
			req.Subtotal, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

// ApplyCoupon previews a coupon against a cart subtotal. Business
// rejections come back as {ok:false, reason} with status 200; only
// transport and storage problems produce error statuses.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, fault.New(fault.InvalidArgument, fault.ReasonInvalidInput))
		return
	}
	req, err := decodeApplyCouponRequest(body)
	if err != nil || req.Code == "" {
		writeRejection(w, fault.ReasonInvalidInput)
		return
	}

	caller := UserID(r.Context())
	if caller == "" || caller != req.UserID {
		writeRejection(w, fault.ReasonUnauthorized)
		return
	}

	res, err := h.coupons.Preview(r.Context(), req.UserID, req.Code, req.Subtotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !res.OK {
		writeRejection(w, res.Reason)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("discount")
	encodeDecimal(e, res.Discount)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}
