package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
	"github.com/xenking/lumine-checkout/internal/domain/order"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

func decodeCreateOrderRequest(data []byte) (order.CreateOrderRequest, error) {
	var req order.CreateOrderRequest
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			req.UserID, err = d.Str()
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				item, err := decodeCartItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "couponCode":
			req.CouponCode, err = d.Str()
		case "customer":
			req.Customer, err = decodeCustomer(d)
		case "pricing":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				if key == "shippingFee" {
					var err error
					req.ShippingFee, err = decodeDecimal(d)
					return err
				}
				return d.Skip()
			})
		case "payment":
			req.Payment, err = decodePayment(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeCartItem(d *jx.Decoder) (order.CartItem, error) {
	var item order.CartItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			item.ProductID, err = d.Str()
		case "qty":
			item.Quantity, err = d.Int()
		case "variant":
			item.Variant, err = decodeVariantSelector(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return item, err
}

func decodeVariantSelector(d *jx.Decoder) (product.VariantSelector, error) {
	var sel product.VariantSelector
	if d.Next() == jx.Null {
		return sel, d.Null()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "color":
			sel.Color, err = d.Str()
		case "size":
			sel.Size, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return sel, err
}

func decodeCustomer(d *jx.Decoder) (order.Customer, error) {
	var c order.Customer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "address":
			c.Address, err = d.Str()
		case "phone":
			c.Phone, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func decodePayment(d *jx.Decoder) (order.Payment, error) {
	var p order.Payment
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "method":
			p.Method, err = d.Str()
		case "slipUrl":
			p.SlipURL, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

// CreateOrder places an order for the authenticated caller.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, fault.New(fault.InvalidArgument, fault.ReasonInvalidInput))
		return
	}
	req, err := decodeCreateOrderRequest(body)
	if err != nil {
		writeError(w, r, fault.New(fault.InvalidArgument, fault.ReasonInvalidInput))
		return
	}
	req.CallerID = UserID(r.Context())

	res, err := h.orders.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("orderId")
	e.Str(res.OrderID)
	e.FieldStart("subtotal")
	encodeDecimal(e, res.Subtotal)
	e.FieldStart("total")
	encodeDecimal(e, res.Total)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}
