package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/lumine-checkout/internal/domain/auth"
)

const getTokenByHashSQL = `SELECT token_hash, user_id, name
	FROM user_tokens WHERE token_hash = $1`

var _ auth.Repository = (*TokenRepository)(nil)

// TokenRepository resolves bearer tokens to user identities. Only the
// HMAC-SHA256 hash of a token is ever stored or queried.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository that uses the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByHash looks up a token by its HMAC-SHA256 hash.
// Returns auth.ErrTokenNotFound when the hash is unknown.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*auth.TokenInfo, error) {
	var info auth.TokenInfo
	err := r.pool.QueryRow(ctx, getTokenByHashSQL, hash).Scan(
		&info.TokenHash, &info.UserID, &info.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("finding token by hash: %w", err)
	}
	return &info, nil
}
