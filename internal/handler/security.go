package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/xenking/lumine-checkout/internal/domain/auth"
	"github.com/xenking/lumine-checkout/internal/domain/fault"
)

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated caller id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Security authenticates requests via HMAC-SHA256 hashed bearer tokens.
type Security struct {
	tokens auth.Repository
	pepper []byte
}

// NewSecurity creates a Security middleware with the given token repository
// and HMAC pepper.
func NewSecurity(tokens auth.Repository, pepper []byte) *Security {
	return &Security{
		tokens: tokens,
		pepper: pepper,
	}
}

// Authenticate resolves the Authorization header into a caller identity.
// Requests without the header pass through anonymous; endpoints decide
// whether an identity is required. A presented but invalid token is
// rejected immediately.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, fault.New(fault.Unauthorized, fault.ReasonUnauthorized))
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(token))
		hash := mac.Sum(nil)

		info, err := s.tokens.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			writeError(w, r, fault.New(fault.Unauthorized, fault.ReasonUnauthorized))
			return
		}

		stored, err := hex.DecodeString(info.TokenHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			writeError(w, r, fault.New(fault.Unauthorized, fault.ReasonUnauthorized))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, info.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
