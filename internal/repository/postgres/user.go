package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `
INSERT INTO users (username, password_hash)
VALUES ($1, $2)
RETURNING id, created_at, username, password_hash, is_admin, balance
`

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, username, hashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `
SELECT id, created_at, username, password_hash, is_admin, balance FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByUsername = `
SELECT id, created_at, username, password_hash, is_admin, balance FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getBalance = `
SELECT balance FROM users
WHERE id = $1
`

// The lock serializes concurrent balance mutations for the same user.
// Operations on different users never wait on each other.
const getBalanceForUpdate = getBalance + `
FOR UPDATE
`

func (r *UserRepo) GetBalance(ctx context.Context, userID uuid.UUID, forUpdate bool) (decimal.Decimal, error) {
	query := getBalance
	if forUpdate {
		query = getBalanceForUpdate
	}

	var balance decimal.Decimal
	err := r.DB.QueryRow(ctx, query, userID).Scan(&balance)

	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		return balance, apperrors.ErrUserNotFound
	default:
		return balance, fmt.Errorf("db error: %w", err)
	}
}

const setBalance = `
UPDATE users
SET balance = $2
WHERE id = $1
`

func (r *UserRepo) SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	tag, err := r.DB.Exec(ctx, setBalance, userID, balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword, &u.IsAdmin, &u.Balance)
	return u, err
}
