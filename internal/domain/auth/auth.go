// Package auth defines the bearer-token identity model. Tokens are opaque
// strings handed to clients out of band; the server stores only their
// HMAC-SHA256 hashes.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrTokenNotFound is returned when no user owns the presented token.
var ErrTokenNotFound = errors.New("token not found")

// TokenInfo is one issued bearer token.
type TokenInfo struct {
	TokenHash string
	UserID    string
	Name      string
}

// Repository provides token lookups.
type Repository interface {
	// FindByHash looks up a token by its HMAC-SHA256 hash.
	// Returns ErrTokenNotFound when the hash is unknown.
	FindByHash(ctx context.Context, hash string) (*TokenInfo, error)
}
