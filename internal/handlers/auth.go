package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pazardigital/walletd/internal/apperrors"
	"github.com/pazardigital/walletd/internal/handlers/render"
	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/models"
)

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password wrong
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(as authService, l logger.Logger) *AuthHandler {
	return &AuthHandler{authService: as, logger: l}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)

	return mux
}

type tokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func toTokenPairResponse(pair models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      pair.Access.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Value,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
	}

	data, err := render.BindAndValidate[registerRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Register(r.Context(), data.Username, data.Password)

	switch {
	case err == nil:
		render.JSONWithStatus(w, toTokenPairResponse(pair), http.StatusCreated)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "user_already_exists", http.StatusConflict)
	default:
		h.logger.Error("Failed to register user", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[loginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Username, data.Password)

	switch {
	case err == nil:
		render.JSON(w, toTokenPairResponse(pair))
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "invalid_credentials", http.StatusUnauthorized)
	default:
		h.logger.Error("Failed to login user", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type refreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[refreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), data.RefreshToken)

	switch {
	case err == nil:
		render.JSON(w, toTokenPairResponse(pair))
	case errors.Is(err, apperrors.ErrRefreshTokenExpired):
		render.ServiceError(w, "refresh_token_expired", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrRefreshTokenIsUsed), errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		render.ServiceError(w, "refresh_token_invalid", http.StatusUnauthorized)
	default:
		h.logger.Error("Failed to refresh tokens", "error", err)
		render.ServiceError(w, "internal_error", http.StatusInternalServerError)
	}
}
