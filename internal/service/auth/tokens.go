package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/authservice/internal/models"
	"github.com/nkiryanov/authservice/internal/repository"
)

const refreshTokenTTL = 7 * 24 * time.Hour

// TokenService issues (access, refresh) pairs
// Callers must authenticate the user first: a password check or a resolved
// refresh token, the service itself checks nothing
type TokenService struct {
	signer      *Signer
	refreshRepo repository.RefreshTokenRepo
}

func NewTokenService(signer *Signer, refreshRepo repository.RefreshTokenRepo) (*TokenService, error) {
	if signer == nil || refreshRepo == nil {
		return nil, errors.New("signer and refresh repo must not be nil")
	}

	return &TokenService{
		signer:      signer,
		refreshRepo: refreshRepo,
	}, nil
}

// Issue a fresh pair for the user
// Every call inserts a new refresh row, existing tokens are left untouched
func (s *TokenService) IssuePair(ctx context.Context, user models.User) (models.TokenResponse, error) {
	var pair models.TokenResponse

	access, err := s.signer.Sign(user)
	if err != nil {
		return pair, err
	}

	now := time.Now().UTC()
	saved, err := s.refreshRepo.Save(ctx, models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(refreshTokenTTL),
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenResponse{
		AccessToken:  access,
		RefreshToken: saved.Token,
	}, nil
}

// Resolve refresh token to it's owner
// Expired and unknown tokens look the same: apperrors.ErrRefreshTokenNotFound
// The row is not consumed, the same token resolves until natural expiry
func (s *TokenService) ResolveRefresh(ctx context.Context, refresh string) (models.User, error) {
	return s.refreshRepo.GetUserByValidToken(ctx, refresh, time.Now().UTC())
}

// Redeem a refresh token for a brand new pair
// The presented token stays valid: a new row is minted instead of rotating
func (s *TokenService) Refresh(ctx context.Context, refresh string) (models.TokenResponse, error) {
	user, err := s.ResolveRefresh(ctx, refresh)
	if err != nil {
		return models.TokenResponse{}, err
	}

	return s.IssuePair(ctx, user)
}
