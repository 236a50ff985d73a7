package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
	"github.com/xenking/lumine-checkout/internal/domain/product"
)

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for i := range products {
		encodeProduct(e, &products[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

// GetProduct returns a single catalog item.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, r, fault.New(fault.NotFound, fault.ReasonProductGone))
			return
		}
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeProduct(e, p)
	writeJSON(w, http.StatusOK, e)
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(img)
	}
	e.ArrEnd()
	e.ObjEnd()
}
