package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/authservice/internal/apperrors"
)

// Single purpose tokens: email confirmation, password reset
// Each token is usable exactly once and expires with the redis key
const (
	PurposeConfirmEmail  = "confirm"
	PurposeResetPassword = "reset"

	purposeKeyPrefix = "ptoken"
)

type PurposeTokenStore struct {
	rdb *redis.Client
}

func NewPurposeTokenStore(rdb *redis.Client) *PurposeTokenStore {
	return &PurposeTokenStore{rdb: rdb}
}

func (s *PurposeTokenStore) key(purpose string, token string) string {
	return purposeKeyPrefix + ":" + purpose + ":" + token
}

// Create token for the user and keep it for 'ttl'
func (s *PurposeTokenStore) Create(ctx context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	err := s.rdb.Set(ctx, s.key(purpose, token), userID.String(), ttl).Err()
	if err != nil {
		return "", fmt.Errorf("redis error: %w", err)
	}

	return token, nil
}

// Consume token and return the user it was issued for
// Token is deleted on read: second consume fails with ErrPurposeTokenInvalid
func (s *PurposeTokenStore) Consume(ctx context.Context, purpose string, token string) (uuid.UUID, error) {
	value, err := s.rdb.GetDel(ctx, s.key(purpose, token)).Result()

	switch {
	case err == nil:
		return uuid.Parse(value)
	case errors.Is(err, redis.Nil):
		return uuid.Nil, apperrors.ErrPurposeTokenInvalid
	default:
		return uuid.Nil, fmt.Errorf("redis error: %w", err)
	}
}
