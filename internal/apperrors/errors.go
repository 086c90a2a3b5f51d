package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrInvalidAmount       = errors.New("amount is invalid")
	ErrBalanceInsufficient = errors.New("insufficient balance")

	ErrDepositRequestNotFound = errors.New("deposit request not found")
	ErrDepositRequestResolved = errors.New("deposit request is already resolved")

	ErrInvalidOrder = errors.New("order is not allowed")
)
