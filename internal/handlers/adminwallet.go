package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/handlers/render"
	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/repository"
	"github.com/pazardigital/walletd/internal/service/wallet"
)

// AdminWalletHandler serves the admin dashboard wallet surface:
// deposit request review, full ledger listings, direct adjustments
type AdminWalletHandler struct {
	walletService walletService
	logger        logger.Logger
}

func NewAdminWallet(ws walletService, l logger.Logger) *AdminWalletHandler {
	return &AdminWalletHandler{walletService: ws, logger: l}
}

func (h *AdminWalletHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wallet/deposit_requests", h.listDepositRequests)
	mux.HandleFunc("POST /wallet/deposit_requests", h.createDepositRequest)
	mux.HandleFunc("PATCH /wallet/deposit_requests/{id}", h.reviewDepositRequest)
	mux.HandleFunc("GET /wallet/transactions", h.listTransactions)
	mux.HandleFunc("POST /users/{id}/wallet/adjust", h.adjustBalance)

	return mux
}

// optionalString distinguishes an absent field from an explicit null
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (h *AdminWalletHandler) listDepositRequests(w http.ResponseWriter, r *http.Request) {
	var filter repository.DepositRequestFilter
	if err := bindListQuery(r, &filter.ListOpts); err != nil {
		render.ServiceError(w, "invalid_query", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			render.ServiceError(w, "invalid_query", http.StatusBadRequest)
			return
		}
		filter.UserID = &userID
	}
	if v := q.Get("status"); v != "" {
		status := strings.ToLower(v)
		filter.Status = &status
	}

	requests, total, err := h.walletService.ListDepositRequests(r.Context(), filter)

	switch {
	case err == nil:
		renderDepositRequestList(w, requests, total)
	case errors.Is(err, apperrors.ErrInvalidOrder):
		render.ServiceError(w, "invalid_query", http.StatusBadRequest)
	default:
		h.logger.Error("Failed to list deposit requests", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *AdminWalletHandler) createDepositRequest(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID        uuid.UUID       `json:"user_id" validate:"required"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method" validate:"omitempty,max=100"`
		PaymentProof  *string         `json:"payment_proof" validate:"omitempty,url"`
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	dr, err := h.walletService.CreateDepositRequest(r.Context(), data.UserID, data.Amount, data.PaymentMethod, data.PaymentProof)

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

func (h *AdminWalletHandler) reviewDepositRequest(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status       *string        `json:"status"`
		AdminNotes   *string        `json:"admin_notes" validate:"omitempty,max=1000"`
		PaymentProof *string        `json:"payment_proof" validate:"omitempty,url"`
		ProcessedAt  optionalString `json:"processed_at"`
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "not_found", http.StatusNotFound)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	patch := wallet.ReviewPatch{
		AdminNotes:   data.AdminNotes,
		PaymentProof: data.PaymentProof,
	}

	if data.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*data.Status))
		switch status {
		case models.DepositStatusPending, models.DepositStatusApproved, models.DepositStatusRejected:
			patch.Status = &status
		default:
			render.ServiceError(w, "invalid_body", http.StatusBadRequest)
			return
		}
	}

	if data.ProcessedAt.Set {
		if data.ProcessedAt.Value == nil {
			patch.ClearProcessedAt = true
		} else {
			patch.ProcessedAt = data.ProcessedAt.Value
		}
	}

	dr, err := h.walletService.ReviewDepositRequest(r.Context(), id, patch)

	switch {
	case err == nil:
		render.JSON(w, toDepositRequestResponse(dr))
	case errors.Is(err, apperrors.ErrDepositRequestNotFound):
		render.ServiceError(w, "not_found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDepositRequestResolved):
		render.ServiceError(w, "request_resolved", http.StatusBadRequest)
	default:
		h.logger.Error("Failed to review deposit request", "error", err, "request_id", id)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *AdminWalletHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var filter repository.TransactionFilter
	if err := bindListQuery(r, &filter.ListOpts); err != nil {
		render.ServiceError(w, "invalid_query", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			render.ServiceError(w, "invalid_query", http.StatusBadRequest)
			return
		}
		filter.UserID = &userID
	}
	if v := q.Get("type"); v != "" {
		filter.Types = []string{strings.ToLower(v)}
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

func (h *AdminWalletHandler) adjustBalance(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Amount      decimal.Decimal `json:"amount"`
		Description *string         `json:"description" validate:"omitempty,max=1000"`
	}

	type response struct {
		OK          bool                `json:"ok"`
		Balance     float64             `json:"balance"`
		Transaction transactionResponse `json:"transaction"`
	}

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "user_not_found", http.StatusNotFound)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	transaction, balance, err := h.walletService.Adjust(r.Context(), userID, data.Amount, data.Description)

	switch {
	case err == nil:
		value, _ := balance.Float64()
		render.JSON(w, response{
			OK:          true,
			Balance:     value,
			Transaction: toTransactionResponse(transaction),
		})
	case errors.Is(err, apperrors.ErrInvalidAmount):
		render.ServiceError(w, "invalid_amount", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrBalanceInsufficient):
		render.ServiceError(w, "insufficient_balance", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "user_not_found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to adjust balance", "error", err, "user_id", userID)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}
