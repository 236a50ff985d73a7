package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
)

// statusOf maps a fault category to its HTTP status code.
func statusOf(category fault.Category) int {
	switch category {
	case fault.Unauthorized:
		return http.StatusUnauthorized
	case fault.InvalidArgument:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.FailedPrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError renders a domain error as {error:{category, reason}}. The
// original error never reaches the client; internals are logged instead.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	f := fault.From(err)
	if f.Category == fault.Internal {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("error")
	e.ObjStart()
	e.FieldStart("category")
	e.Str(string(f.Category))
	e.FieldStart("reason")
	e.Str(f.Reason)
	e.ObjEnd()
	e.ObjEnd()
	writeJSON(w, statusOf(f.Category), e)
}

// writeRejection renders a business rejection as {ok:false, reason} with
// status 200, the shape preview endpoints use.
func writeRejection(w http.ResponseWriter, reason string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(false)
	e.FieldStart("reason")
	e.Str(reason)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

// encodeDecimal writes a decimal as a bare JSON number.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}
