package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypePurchase   = "purchase"
	TransactionTypeRefund     = "refund"
)

const (
	DepositStatusPending  = "pending"
	DepositStatusApproved = "approved"
	DepositStatusRejected = "rejected"
)

// Default payment method for deposit requests (bank transfer)
const DefaultPaymentMethod = "havale"

// Transaction is an immutable ledger entry. Amount is always a positive
// magnitude, the direction is encoded by Type.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        string
	Amount      decimal.Decimal
	Description *string
	OrderID     *uuid.UUID
	CreatedAt   time.Time
}

// Signed returns the transaction amount with direction applied:
// deposits and refunds positive, withdrawals and purchases negative.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypePurchase:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}

// DepositRequest is a user submitted top-up pending admin review
type DepositRequest struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentProof  *string
	Status        string
	AdminNotes    *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Resolved reports whether the request reached a terminal status
func (r DepositRequest) Resolved() bool {
	return r.Status != DepositStatusPending
}
