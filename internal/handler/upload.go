package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/lumine-checkout/internal/domain/fault"
)

// Upload rejection reasons.
const (
	reasonNoImages = "NO_IMAGES"
	reasonNoKey    = "NO_IMGBB_KEY"
)

// UploadImages forwards base64-encoded images to the hosting provider and
// returns their public URLs. Requires an authenticated caller.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if UserID(r.Context()) == "" {
		writeError(w, r, fault.New(fault.Unauthorized, fault.ReasonUnauthorized))
		return
	}
	if !h.uploads.Configured() {
		writeRejection(w, reasonNoKey)
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, r, fault.New(fault.InvalidArgument, fault.ReasonInvalidInput))
		return
	}

	var images []string
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		if key == "images" {
			var err error
			images, err = decodeStrings(d)
			return err
		}
		return d.Skip()
	})
	if err != nil {
		writeError(w, r, fault.New(fault.InvalidArgument, fault.ReasonInvalidInput))
		return
	}
	if len(images) == 0 {
		writeRejection(w, reasonNoImages)
		return
	}

	urls, err := h.uploads.UploadAll(r.Context(), images)
	if err != nil {
		writeError(w, r, fault.Wrap(fault.Internal, "IMGBB_UPLOAD_FAILED", err))
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("urls")
	e.ArrStart()
	for _, u := range urls {
		e.Str(u)
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}
