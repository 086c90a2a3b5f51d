package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	walletHandler *WalletHandler,
	adminWalletHandler *AdminWalletHandler,
	authMiddleware func(http.Handler) http.Handler,
	adminMiddleware func(http.Handler) http.Handler,
	loggerMiddleware func(http.Handler) http.Handler,
) http.Handler {
	root := http.NewServeMux()

	root.Handle("/api/auth/", http.StripPrefix("/api/auth", authHandler.Handler()))
	root.Handle("/api/wallet/", http.StripPrefix("/api/wallet", chain(
		walletHandler.Handler(),
		authMiddleware,
	)))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", chain(
		adminWalletHandler.Handler(),
		authMiddleware,
		adminMiddleware,
	)))

	return chain(root, loggerMiddleware)
}
