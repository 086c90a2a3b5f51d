package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/models"
)

// Storage aggregates all repositories and provides transactions over them
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Wallet() WalletRepo

	// InTx runs fn inside single db transaction
	// The storage passed to fn shares that transaction, so every repository
	// call made through it commits or rolls back as one unit
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Read the user's stored balance
	// forUpdate locks the user row until the surrounding transaction ends
	GetBalance(ctx context.Context, userID uuid.UUID, forUpdate bool) (decimal.Decimal, error)

	// Overwrite the user's stored balance
	// Expected to be called only inside a transaction that also appends
	// the matching ledger row
	SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token and mark it used in one statement
	// If the token is already used must return apperrors.ErrRefreshTokenIsUsed
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// ListOpts is shared pagination and ordering for wallet listings.
// Order is a "column.direction" string (e.g. "created_at.desc") checked
// against an allow-list of sortable columns.
type ListOpts struct {
	Limit  int
	Offset int
	Order  string
}

type TransactionFilter struct {
	UserID *uuid.UUID
	Types  []string
	ListOpts
}

type DepositRequestFilter struct {
	UserID *uuid.UUID
	Status *string
	ListOpts
}

// Wallet repository interface
type WalletRepo interface {
	// Append one immutable ledger entry
	// If the user not found must return apperrors.ErrUserNotFound
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// List ledger entries with the total count of matched rows
	ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error)

	// Create deposit request
	// If the user not found must return apperrors.ErrUserNotFound
	CreateDepositRequest(ctx context.Context, r models.DepositRequest) (models.DepositRequest, error)

	// Get deposit request by id
	// forUpdate locks the row until the surrounding transaction ends
	// If not found must return apperrors.ErrDepositRequestNotFound
	GetDepositRequest(ctx context.Context, id uuid.UUID, forUpdate bool) (models.DepositRequest, error)

	// Overwrite mutable deposit request fields (status, notes, proof, timestamps)
	UpdateDepositRequest(ctx context.Context, r models.DepositRequest) (models.DepositRequest, error)

	// List deposit requests with the total count of matched rows
	ListDepositRequests(ctx context.Context, f DepositRequestFilter) ([]models.DepositRequest, int64, error)
}
