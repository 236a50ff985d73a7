package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies; base64 image payloads are the largest
// legitimate requests.
const maxBodyBytes = 32 << 20

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// decodeDecimal reads a JSON number (bare or quoted) as a decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.Trim(n.String(), `"`))
}

// decodeStrings reads a JSON array of strings.
func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
