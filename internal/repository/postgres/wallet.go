package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/repository"
)

type WalletRepo struct {
	DB DBTX
}

// Columns the listing endpoints may sort on, mapped to the real column.
// Everything else is refused, a sort name ends up in the query text as is.
// Ledger rows are immutable so their updated_at is the creation time.
var transactionSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "created_at",
	"amount":     "amount",
}

var depositRequestSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"amount":     "amount",
}

// sortClause converts a "column.direction" string to an ORDER BY body.
// Empty order falls back to newest first.
func sortClause(order string, columns map[string]string) (string, error) {
	if order == "" {
		return "created_at DESC", nil
	}

	name, direction, _ := strings.Cut(order, ".")
	column, ok := columns[name]
	if !ok {
		return "", fmt.Errorf("column %q: %w", name, apperrors.ErrInvalidOrder)
	}

	switch strings.ToLower(direction) {
	case "desc", "":
		return column + " DESC", nil
	case "asc":
		return column + " ASC", nil
	default:
		return "", fmt.Errorf("direction %q: %w", direction, apperrors.ErrInvalidOrder)
	}
}

const createTransaction = `
INSERT INTO wallet_transactions (id, user_id, type, amount, description, order_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, type, amount, description, order_id, created_at
`

func (r *WalletRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction, t.ID, t.UserID, t.Type, t.Amount, t.Description, t.OrderID, t.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *WalletRepo) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error) {
	orderBy, err := sortClause(f.Order, transactionSortColumns)
	if err != nil {
		return nil, 0, err
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(f.Types) > 0 {
		args = append(args, f.Types)
		where = append(where, fmt.Sprintf("type = ANY($%d)", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := "SELECT count(*) FROM wallet_transactions " + whereClause
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(
		"SELECT id, user_id, type, amount, description, order_id, created_at FROM wallet_transactions %s ORDER BY %s LIMIT $%d OFFSET $%d",
		whereClause, orderBy, len(args)-1, len(args),
	)

	rows, _ := r.DB.Query(ctx, listQuery, args...)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return transactions, total, nil
}

const createDepositRequest = `
INSERT INTO wallet_deposit_requests (id, user_id, amount, payment_method, payment_proof, status, admin_notes, processed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, user_id, amount, payment_method, payment_proof, status, admin_notes, processed_at, created_at, updated_at
`

func (r *WalletRepo) CreateDepositRequest(ctx context.Context, dr models.DepositRequest) (models.DepositRequest, error) {
	rows, _ := r.DB.Query(ctx, createDepositRequest,
		dr.ID, dr.UserID, dr.Amount, dr.PaymentMethod, dr.PaymentProof,
		dr.Status, dr.AdminNotes, dr.ProcessedAt, dr.CreatedAt, dr.UpdatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToDepositRequest)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getDepositRequest = `
SELECT id, user_id, amount, payment_method, payment_proof, status, admin_notes, processed_at, created_at, updated_at
FROM wallet_deposit_requests
WHERE id = $1
`

// The lock keeps two concurrent reviews of the same request from both
// reading 'pending' and both crediting the balance.
const getDepositRequestForUpdate = getDepositRequest + `
FOR UPDATE
`

func (r *WalletRepo) GetDepositRequest(ctx context.Context, id uuid.UUID, forUpdate bool) (models.DepositRequest, error) {
	query := getDepositRequest
	if forUpdate {
		query = getDepositRequestForUpdate
	}

	rows, _ := r.DB.Query(ctx, query, id)
	dr, err := pgx.CollectOneRow(rows, rowToDepositRequest)

	switch {
	case err == nil:
		return dr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return dr, apperrors.ErrDepositRequestNotFound
	default:
		return dr, fmt.Errorf("db error: %w", err)
	}
}

const updateDepositRequest = `
UPDATE wallet_deposit_requests
SET payment_proof = $2, status = $3, admin_notes = $4, processed_at = $5, updated_at = $6
WHERE id = $1
RETURNING id, user_id, amount, payment_method, payment_proof, status, admin_notes, processed_at, created_at, updated_at
`

func (r *WalletRepo) UpdateDepositRequest(ctx context.Context, dr models.DepositRequest) (models.DepositRequest, error) {
	rows, _ := r.DB.Query(ctx, updateDepositRequest,
		dr.ID, dr.PaymentProof, dr.Status, dr.AdminNotes, dr.ProcessedAt, dr.UpdatedAt,
	)
	updated, err := pgx.CollectOneRow(rows, rowToDepositRequest)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, apperrors.ErrDepositRequestNotFound
	default:
		return updated, fmt.Errorf("db error: %w", err)
	}
}

func (r *WalletRepo) ListDepositRequests(ctx context.Context, f repository.DepositRequestFilter) ([]models.DepositRequest, int64, error) {
	orderBy, err := sortClause(f.Order, depositRequestSortColumns)
	if err != nil {
		return nil, 0, err
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := "SELECT count(*) FROM wallet_deposit_requests " + whereClause
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(
		"SELECT id, user_id, amount, payment_method, payment_proof, status, admin_notes, processed_at, created_at, updated_at FROM wallet_deposit_requests %s ORDER BY %s LIMIT $%d OFFSET $%d",
		whereClause, orderBy, len(args)-1, len(args),
	)

	rows, _ := r.DB.Query(ctx, listQuery, args...)
	requests, err := pgx.CollectRows(rows, rowToDepositRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return requests, total, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.OrderID, &t.CreatedAt)
	return t, err
}

func rowToDepositRequest(row pgx.CollectableRow) (models.DepositRequest, error) {
	var dr models.DepositRequest
	err := row.Scan(
		&dr.ID, &dr.UserID, &dr.Amount, &dr.PaymentMethod, &dr.PaymentProof,
		&dr.Status, &dr.AdminNotes, &dr.ProcessedAt, &dr.CreatedAt, &dr.UpdatedAt,
	)
	return dr, err
}
