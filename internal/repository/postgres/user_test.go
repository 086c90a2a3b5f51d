package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/repository"
	"github.com/pazardigital/walletd/internal/testutil"
)

func TestUserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(NewStorage(tx))
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user, err := storage.User().CreateUser(t.Context(), "test-user", "hashed-password")

				require.NoError(t, err, "creating new user should be ok")
				require.NotEmpty(t, user.ID, "user ID should not be empty")
				require.Equal(t, "test-user", user.Username)
				require.Equal(t, "hashed-password", user.HashedPassword)
				require.False(t, user.IsAdmin, "user should not be admin by default")
				require.True(t, user.Balance.IsZero(), "initial balance should be zero")
				require.NotZero(t, user.CreatedAt, "created at should be set")
			})
		})

		t.Run("create duplicate", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				_, err := storage.User().CreateUser(t.Context(), "test-user", "hash")
				require.NoError(t, err, "first user creation should succeed")

				_, err = storage.User().CreateUser(t.Context(), "test-user", "other-hash")

				require.Error(t, err, "creating duplicate user should fail")
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("GetUser", func(t *testing.T) {
		inTx(t, func(storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "test-user", "hash")
			require.NoError(t, err)

			t.Run("by id", func(t *testing.T) {
				got, err := storage.User().GetUserByID(t.Context(), user.ID)

				require.NoError(t, err)
				require.Equal(t, user.ID, got.ID)
				require.Equal(t, user.Username, got.Username)
			})

			t.Run("by username", func(t *testing.T) {
				got, err := storage.User().GetUserByUsername(t.Context(), "test-user")

				require.NoError(t, err)
				require.Equal(t, user.ID, got.ID)
			})

			t.Run("not existing id", func(t *testing.T) {
				_, err := storage.User().GetUserByID(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
			})

			t.Run("not existing username", func(t *testing.T) {
				_, err := storage.User().GetUserByUsername(t.Context(), "nobody")

				require.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
			})
		})
	})

	t.Run("Balance", func(t *testing.T) {
		inTx(t, func(storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "test-user", "hash")
			require.NoError(t, err)

			t.Run("get zero balance", func(t *testing.T) {
				balance, err := storage.User().GetBalance(t.Context(), user.ID, false)

				require.NoError(t, err)
				require.True(t, balance.IsZero(), "new user balance should be zero")
			})

			t.Run("set and get", func(t *testing.T) {
				err := storage.User().SetBalance(t.Context(), user.ID, decimal.RequireFromString("123.45"))
				require.NoError(t, err, "setting balance should not fail")

				balance, err := storage.User().GetBalance(t.Context(), user.ID, false)

				require.NoError(t, err)
				require.True(t, balance.Equal(decimal.RequireFromString("123.45")), "stored balance should match, got %s", balance)
			})

			t.Run("get locked", func(t *testing.T) {
				balance, err := storage.User().GetBalance(t.Context(), user.ID, true)

				require.NoError(t, err, "reading balance with row lock should not fail")
				require.False(t, balance.IsNegative())
			})

			t.Run("get for not existing user", func(t *testing.T) {
				_, err := storage.User().GetBalance(t.Context(), uuid.New(), false)

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})

			t.Run("set for not existing user", func(t *testing.T) {
				err := storage.User().SetBalance(t.Context(), uuid.New(), decimal.NewFromInt(1))

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})
}
