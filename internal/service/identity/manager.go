package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authservice/internal/apperrors"
	"github.com/nkiryanov/authservice/internal/models"
	"github.com/nkiryanov/authservice/internal/repository"
)

const (
	confirmEmailTokenTTL  = 24 * time.Hour
	resetPasswordTokenTTL = time.Hour
)

type ManagerConfig struct {
	// Hasher to use during registration, login and password reset
	// Bcrypt hasher is used if not set
	Hasher PasswordHasher
}

// Manager owns user records and their credentials: creation, password
// verification, email confirmation and password reset
// Token issuance is not it's business, see service/auth
type Manager struct {
	users  repository.UserRepo
	tokens *PurposeTokenStore
	hasher PasswordHasher
}

func NewManager(cfg ManagerConfig, users repository.UserRepo, tokens *PurposeTokenStore) (*Manager, error) {
	if users == nil || tokens == nil {
		return nil, errors.New("user repo and token store must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &Manager{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}, nil
}

// Create user with hashed password
// Duplicate email returns apperrors.ErrUserAlreadyExists
func (m *Manager) CreateUser(ctx context.Context, email string, password string) (models.User, error) {
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	return m.users.CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		HashedPassword: hash,
	})
}

func (m *Manager) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return m.users.GetUserByEmail(ctx, email)
}

func (m *Manager) FindByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return m.users.GetUserByID(ctx, userID)
}

// Check the password against the stored hash
func (m *Manager) VerifyPassword(user models.User, password string) bool {
	return m.hasher.Compare(user.HashedPassword, password) == nil
}

func (m *Manager) GenerateEmailConfirmationToken(ctx context.Context, user models.User) (string, error) {
	return m.tokens.Create(ctx, PurposeConfirmEmail, user.ID, confirmEmailTokenTTL)
}

// Confirm user email with a token issued by GenerateEmailConfirmationToken
// Token issued for another user is as invalid as an unknown one
func (m *Manager) ConfirmEmail(ctx context.Context, user models.User, token string) error {
	userID, err := m.tokens.Consume(ctx, PurposeConfirmEmail, token)
	if err != nil {
		return err
	}
	if userID != user.ID {
		return apperrors.ErrPurposeTokenInvalid
	}

	return m.users.ConfirmEmail(ctx, user.ID, time.Now().UTC())
}

func (m *Manager) GeneratePasswordResetToken(ctx context.Context, user models.User) (string, error) {
	return m.tokens.Create(ctx, PurposeResetPassword, user.ID, resetPasswordTokenTTL)
}

// Set a new password if the reset token is valid and belongs to the user
func (m *Manager) ResetPassword(ctx context.Context, user models.User, token string, newPassword string) error {
	userID, err := m.tokens.Consume(ctx, PurposeResetPassword, token)
	if err != nil {
		return err
	}
	if userID != user.ID {
		return apperrors.ErrPurposeTokenInvalid
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return m.users.UpdatePassword(ctx, user.ID, hash)
}

// Delete the user, refresh tokens go away with it by cascade
func (m *Manager) DeleteUser(ctx context.Context, user models.User) error {
	return m.users.DeleteUser(ctx, user.ID)
}
