package auth

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authservice/internal/apperrors"
	"github.com/nkiryanov/authservice/internal/models"
	"github.com/nkiryanov/authservice/internal/repository"
	"github.com/nkiryanov/authservice/internal/repository/postgres"
	"github.com/nkiryanov/authservice/internal/testutil"
)

func Test_TokenService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()
		repo := postgres.UserRepo{DB: tx}
		user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
			Email:          "a@x.com",
			HashedPassword: "hashed-password",
		})
		require.NoError(t, err)
		return user
	}

	newService := func(t *testing.T, tx pgx.Tx) (*TokenService, *postgres.RefreshTokenRepo) {
		t.Helper()
		signer, err := NewSigner(testJwtOptions())
		require.NoError(t, err)

		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
		s, err := NewTokenService(signer, refreshRepo)
		require.NoError(t, err)
		return s, refreshRepo
	}

	t.Run("issue pair ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			s, refreshRepo := newService(t, tx)

			pair, err := s.IssuePair(t.Context(), user)

			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken, "access token should not be empty")
			assert.NotEmpty(t, pair.RefreshToken, "refresh token should not be empty")

			// Refresh token must be stored with seven days expiry
			stored, err := refreshRepo.Get(t.Context(), pair.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, user.ID, stored.UserID)
			assert.Equal(t, pair.RefreshToken, stored.Token, "returned token should be the stored one")
			assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Second)
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), stored.ExpiresAt, time.Second)
		})
	})

	t.Run("every pair gets own refresh row", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			s, _ := newService(t, tx)

			first, err := s.IssuePair(t.Context(), user)
			require.NoError(t, err)
			second, err := s.IssuePair(t.Context(), user)
			require.NoError(t, err)

			assert.NotEqual(t, first.RefreshToken, second.RefreshToken, "refresh tokens should be unique")
			assert.NotEqual(t, first.AccessToken, second.AccessToken, "access tokens should differ by jti")

			// Concurrent sessions are supported: both tokens stay valid
			_, err = s.ResolveRefresh(t.Context(), first.RefreshToken)
			assert.NoError(t, err)
			_, err = s.ResolveRefresh(t.Context(), second.RefreshToken)
			assert.NoError(t, err)
		})
	})

	t.Run("resolve returns the owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			s, _ := newService(t, tx)

			pair, err := s.IssuePair(t.Context(), user)
			require.NoError(t, err)

			got, err := s.ResolveRefresh(t.Context(), pair.RefreshToken)

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, user.Email, got.Email)
		})
	})

	t.Run("refresh mints new pair and keeps the old token valid", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			s, _ := newService(t, tx)

			pair, err := s.IssuePair(t.Context(), user)
			require.NoError(t, err)

			refreshed, err := s.Refresh(t.Context(), pair.RefreshToken)

			require.NoError(t, err)
			assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken, "refresh should mint a new token")

			// Presented token is not rotated out: it resolves again
			_, err = s.ResolveRefresh(t.Context(), pair.RefreshToken)
			assert.NoError(t, err, "old refresh token should stay valid until natural expiry")
			_, err = s.ResolveRefresh(t.Context(), refreshed.RefreshToken)
			assert.NoError(t, err)
		})
	})

	t.Run("refresh with unknown token fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s, _ := newService(t, tx)

			_, err := s.Refresh(t.Context(), "not-a-real-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("refresh with expired token fails same way", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			s, refreshRepo := newService(t, tx)

			_, err := refreshRepo.Save(t.Context(), models.RefreshToken{
				UserID:    user.ID,
				Token:     "expired-token",
				CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
				ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
			})
			require.NoError(t, err)

			_, err = s.Refresh(t.Context(), "expired-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "expired token should be indistinguishable from unknown one")
		})
	})
}
