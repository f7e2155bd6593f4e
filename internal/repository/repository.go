package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nkiryanov/authservice/internal/models"
)

type CreateUserParams struct {
	Email          string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set email_confirmed_at for the user
	ConfirmEmail(ctx context.Context, userID uuid.UUID, confirmedAt time.Time) error

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Delete user and (by cascade) all it's refresh tokens
	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken repository interface
// Tokens are append only: rows are never updated in place
type RefreshTokenRepo interface {
	// Save token in repository and return the stored row with assigned id
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists, even expired
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Return the owner of a token that expires strictly after 'now'
	// Unknown or expired token must return apperrors.ErrRefreshTokenNotFound
	GetUserByValidToken(ctx context.Context, tokenString string, now time.Time) (models.User, error)

	// Remove rows expired at 'now'
	// Meant for an external maintenance job, never called on request paths
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
