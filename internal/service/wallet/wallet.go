package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/notification"
	"github.com/pazardigital/walletd/internal/repository"
)

const (
	defaultListLimit = 100

	// Money is stored with two decimal places
	moneyScale = 2
)

type Service struct {
	storage  repository.Storage
	notifier notification.Notifier
	logger   logger.Logger
}

func NewService(storage repository.Storage, notifier notification.Notifier, l logger.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		logger:   l,
	}
}

// ReviewPatch carries the admin review fields. Nil means "leave untouched".
// ProcessedAt is the raw override string; ClearProcessedAt resets the
// timestamp when the caller sent an explicit null.
type ReviewPatch struct {
	Status           *string
	AdminNotes       *string
	PaymentProof     *string
	ProcessedAt      *string
	ClearProcessedAt bool
}

// CreateDepositRequest registers a pending top-up claim.
// No balance is touched until an admin approves the request.
func (s *Service) CreateDepositRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, paymentMethod string, paymentProof *string) (models.DepositRequest, error) {
	var dr models.DepositRequest

	if !amount.IsPositive() {
		return dr, fmt.Errorf("deposit request amount must be positive: %w", apperrors.ErrInvalidAmount)
	}

	if paymentMethod == "" {
		paymentMethod = models.DefaultPaymentMethod
	}

	now := time.Now()
	dr = models.DepositRequest{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount.Round(moneyScale),
		PaymentMethod: paymentMethod,
		PaymentProof:  paymentProof,
		Status:        models.DepositStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.storage.Wallet().CreateDepositRequest(ctx, dr)
}

// ReviewDepositRequest applies an admin patch to a deposit request.
//
// The whole review runs in one transaction holding an exclusive lock on the
// request row. A pending request patched to approved is credited: the user's
// balance grows by the request amount and one deposit ledger entry is
// appended, all inside the same transaction. The credit fires only on the
// pending -> approved transition, so repeating the patch can't credit twice
// and concurrent reviews serialize on the row lock.
func (s *Service) ReviewDepositRequest(ctx context.Context, id uuid.UUID, patch ReviewPatch) (models.DepositRequest, error) {
	var updated models.DepositRequest
	var credited bool
	var balance decimal.Decimal

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		dr, err := store.Wallet().GetDepositRequest(ctx, id, true)
		if err != nil {
			return err
		}

		prev := dr.Status
		if patch.AdminNotes != nil {
			dr.AdminNotes = patch.AdminNotes
		}
		if patch.PaymentProof != nil {
			dr.PaymentProof = patch.PaymentProof
		}
		if patch.Status != nil && *patch.Status != prev {
			if dr.Resolved() {
				return fmt.Errorf("status %s -> %s: %w", prev, *patch.Status, apperrors.ErrDepositRequestResolved)
			}
			dr.Status = *patch.Status
		}

		now := time.Now()
		approved := prev == models.DepositStatusPending && dr.Status == models.DepositStatusApproved

		switch {
		case patch.ClearProcessedAt:
			dr.ProcessedAt = nil
		case patch.ProcessedAt != nil:
			t, err := time.Parse(time.RFC3339, *patch.ProcessedAt)
			if err != nil {
				t = now // unparseable override falls back to now
			}
			dr.ProcessedAt = &t
		case approved:
			dr.ProcessedAt = &now
		}

		dr.UpdatedAt = now

		if approved {
			current, err := store.User().GetBalance(ctx, dr.UserID, true)
			if err != nil {
				return err
			}

			balance = current.Add(dr.Amount).Round(moneyScale)
			if err := store.User().SetBalance(ctx, dr.UserID, balance); err != nil {
				return err
			}

			description := fmt.Sprintf("Deposit via %s", dr.PaymentMethod)
			_, err = store.Wallet().CreateTransaction(ctx, models.Transaction{
				ID:          uuid.New(),
				UserID:      dr.UserID,
				Type:        models.TransactionTypeDeposit,
				Amount:      dr.Amount,
				Description: &description,
				CreatedAt:   now,
			})
			if err != nil {
				return err
			}
		}

		updated, err = store.Wallet().UpdateDepositRequest(ctx, dr)
		if err != nil {
			return err
		}

		credited = approved
		return nil
	})
	if err != nil {
		return updated, err
	}

	// Notify only after the transaction committed. Failures are logged and
	// swallowed, the review already succeeded.
	if credited {
		event := notification.Event{
			Kind:    notification.KindDepositApproved,
			UserID:  updated.UserID,
			Amount:  updated.Amount,
			Balance: balance,
		}
		if err := s.notifier.Send(ctx, event); err != nil {
			s.logger.Error("Failed to send deposit approved notification", "error", err, "user_id", updated.UserID)
		}
	}

	return updated, nil
}

// Adjust mutates the user's balance by a signed amount and appends the
// matching ledger entry, both in one transaction under the user row lock.
// Positive amounts record a deposit, negative a withdrawal. Zero amounts
// and adjustments that would take the balance below zero are rejected.
func (s *Service) Adjust(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description *string) (models.Transaction, decimal.Decimal, error) {
	var transaction models.Transaction
	var balance decimal.Decimal

	if amount.IsZero() {
		return transaction, balance, fmt.Errorf("adjustment amount must not be zero: %w", apperrors.ErrInvalidAmount)
	}

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		current, err := store.User().GetBalance(ctx, userID, true)
		if err != nil {
			return err
		}

		next := current.Add(amount).Round(moneyScale)
		if next.IsNegative() {
			return fmt.Errorf("balance %s, adjustment %s: %w", current, amount, apperrors.ErrBalanceInsufficient)
		}

		if err := store.User().SetBalance(ctx, userID, next); err != nil {
			return err
		}

		transactionType := models.TransactionTypeDeposit
		if amount.IsNegative() {
			transactionType = models.TransactionTypeWithdrawal
		}

		transaction, err = store.Wallet().CreateTransaction(ctx, models.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Type:        transactionType,
			Amount:      amount.Abs().Round(moneyScale),
			Description: description,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return err
		}

		balance = next
		return nil
	})

	return transaction, balance, err
}

// GetBalance returns the user's current stored balance
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.storage.User().GetBalance(ctx, userID, false)
}

func (s *Service) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error) {
	setListDefaults(&f.ListOpts)
	return s.storage.Wallet().ListTransactions(ctx, f)
}

func (s *Service) ListDepositRequests(ctx context.Context, f repository.DepositRequestFilter) ([]models.DepositRequest, int64, error) {
	setListDefaults(&f.ListOpts)
	return s.storage.Wallet().ListDepositRequests(ctx, f)
}

func setListDefaults(opts *repository.ListOpts) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
}
