package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/handlers/render"
	"github.com/pazardigital/walletd/internal/handlers/userctx"
	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/repository"
	"github.com/pazardigital/walletd/internal/service/wallet"
)

type walletService interface {
	CreateDepositRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, paymentMethod string, paymentProof *string) (models.DepositRequest, error)
	ReviewDepositRequest(ctx context.Context, id uuid.UUID, patch wallet.ReviewPatch) (models.DepositRequest, error)
	Adjust(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description *string) (models.Transaction, decimal.Decimal, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error)
	ListDepositRequests(ctx context.Context, f repository.DepositRequestFilter) ([]models.DepositRequest, int64, error)
}

// WalletHandler serves the wallet pages of the storefront:
// own balance, own ledger, own deposit requests
type WalletHandler struct {
	walletService walletService
	logger        logger.Logger
}

func NewWallet(ws walletService, l logger.Logger) *WalletHandler {
	return &WalletHandler{walletService: ws, logger: l}
}

func (h *WalletHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /balance", h.balance)
	mux.HandleFunc("GET /transactions", h.transactions)
	mux.HandleFunc("POST /deposit_requests", h.createDepositRequest)

	return mux
}

type transactionResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Description *string    `json:"description"`
	OrderID     *uuid.UUID `json:"order_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type depositRequestResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        float64    `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	PaymentProof  *string    `json:"payment_proof"`
	Status        string     `json:"status"`
	AdminNotes    *string    `json:"admin_notes"`
	ProcessedAt   *time.Time `json:"processed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	amount, _ := t.Amount.Float64()
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        t.Type,
		Amount:      amount,
		Description: t.Description,
		OrderID:     t.OrderID,
		CreatedAt:   t.CreatedAt,
	}
}

func toDepositRequestResponse(dr models.DepositRequest) depositRequestResponse {
	amount, _ := dr.Amount.Float64()
	return depositRequestResponse{
		ID:            dr.ID,
		UserID:        dr.UserID,
		Amount:        amount,
		PaymentMethod: dr.PaymentMethod,
		PaymentProof:  dr.PaymentProof,
		Status:        dr.Status,
		AdminNotes:    dr.AdminNotes,
		ProcessedAt:   dr.ProcessedAt,
		CreatedAt:     dr.CreatedAt,
		UpdatedAt:     dr.UpdatedAt,
	}
}

func (h *WalletHandler) balance(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Balance float64 `json:"balance"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
		return
	}

	balance, err := h.walletService.GetBalance(r.Context(), user.ID)

	switch {
	case err == nil:
		value, _ := balance.Float64()
		render.JSON(w, response{Balance: value})
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "user_not_found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get balance", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *WalletHandler) transactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
		return
	}

	filter := repository.TransactionFilter{UserID: &user.ID}
	if err := bindListQuery(r, &filter.ListOpts); err != nil {
		render.ServiceError(w, "invalid_query", http.StatusBadRequest)
		return
	}
	if transactionType := r.URL.Query().Get("type"); transactionType != "" {
		filter.Types = []string{transactionType}
	}

	transactions, total, err := h.walletService.ListTransactions(r.Context(), filter)

	switch {
	case err == nil:
		renderTransactionList(w, transactions, total)
	case errors.Is(err, apperrors.ErrInvalidOrder):
		render.ServiceError(w, "invalid_query", http.StatusBadRequest)
	default:
		h.logger.Error("Failed to list transactions", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *WalletHandler) createDepositRequest(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method" validate:"omitempty,max=100"`
		PaymentProof  *string         `json:"payment_proof" validate:"omitempty,url"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	dr, err := h.walletService.CreateDepositRequest(r.Context(), user.ID, data.Amount, data.PaymentMethod, data.PaymentProof)

	switch {
	case err == nil:
		render.JSONWithStatus(w, toDepositRequestResponse(dr), http.StatusCreated)
	case errors.Is(err, apperrors.ErrInvalidAmount):
		render.ServiceError(w, "invalid_amount", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "user_not_found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to create deposit request", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}
