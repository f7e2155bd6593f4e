package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/authservice/internal/apperrors"
	"github.com/nkiryanov/authservice/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (user_id, token, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, token, created_at, expires_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getToken = `-- name: GetRefreshToken
SELECT id, user_id, token, created_at, expires_at
FROM refresh_tokens
WHERE token = $1
`

// Get token by the string itself
// Returns the row even if it expired already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const getUserByValidToken = `-- name: GetUserByValidToken
SELECT u.id, u.created_at, u.email, u.password_hash, u.email_confirmed_at
FROM refresh_tokens t
JOIN users u ON u.id = t.user_id
WHERE t.token = $1 AND t.expires_at > $2
`

// Return the owner of the token if it not expired at 'now'
// Lookup never mutates the row: the same token resolves until natural expiry
func (r *RefreshTokenRepo) GetUserByValidToken(ctx context.Context, tokenString string, now time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByValidToken, tokenString, now)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const deleteExpired = `-- name: DeleteExpiredRefreshTokens
DELETE FROM refresh_tokens
WHERE expires_at <= $1
`

// Remove expired rows
// Request paths never call it, expired tokens just stop resolving
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpired, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt)
	return t, err
}
