package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pazardigital/walletd/internal/handlers/userctx"
	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/models"
	"github.com/pazardigital/walletd/internal/notification"
	"github.com/pazardigital/walletd/internal/repository/postgres"
	"github.com/pazardigital/walletd/internal/service/wallet"
	"github.com/pazardigital/walletd/internal/testutil"
)

func Test_WalletHandler(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with the user wallet handlers attached.
	// The authenticated user is injected into the request context the same
	// way the auth middleware does it in production.
	inTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(url string, s *wallet.Service, user models.User)) {
		testutil.InTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			s := wallet.NewService(storage, &notification.LogNotifier{Logger: logger.NewNoOp()}, logger.NewNoOp())

			user, err := storage.User().CreateUser(t.Context(), "user-"+uuid.NewString(), "hash")
			require.NoError(t, err)

			h := NewWallet(s, logger.NewNoOp()).Handler()
			asUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
			})

			srv := httptest.NewServer(asUser)
			defer srv.Close()

			fn(srv.URL, s, user)
		})
	}

	get := func(t *testing.T, url string) (*http.Response, string) {
		resp, err := http.Get(url)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp, string(body)
	}

	t.Run("balance", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *wallet.Service, user models.User) {
			_, _, err := s.Adjust(t.Context(), user.ID, decimal.RequireFromString("120.50"), nil)
			require.NoError(t, err)

			resp, body := get(t, url+"/balance")

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"balance": 120.50}`, body)
		})
	})

	t.Run("transactions", func(t *testing.T) {
		t.Run("own transactions only", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, s *wallet.Service, user models.User) {
				_, _, err := s.Adjust(t.Context(), user.ID, decimal.NewFromInt(100), nil)
				require.NoError(t, err)
				_, _, err = s.Adjust(t.Context(), user.ID, decimal.NewFromInt(-30), nil)
				require.NoError(t, err)

				resp, body := get(t, url+"/transactions")

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.Equal(t, "2", resp.Header.Get("x-total-count"))

				var transactions []transactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &transactions))
				require.Len(t, transactions, 2)
				for _, tr := range transactions {
					require.Equal(t, user.ID, tr.UserID)
				}
			})
		})

		t.Run("filter by type", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, s *wallet.Service, user models.User) {
				_, _, err := s.Adjust(t.Context(), user.ID, decimal.NewFromInt(100), nil)
				require.NoError(t, err)
				_, _, err = s.Adjust(t.Context(), user.ID, decimal.NewFromInt(-30), nil)
				require.NoError(t, err)

				resp, body := get(t, url+"/transactions?type="+models.TransactionTypeDeposit)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

				var transactions []transactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &transactions))
				require.Len(t, transactions, 1)
				require.Equal(t, models.TransactionTypeDeposit, transactions[0].Type)
			})
		})

		t.Run("bad pagination", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, _ *wallet.Service, _ models.User) {
				resp, body := get(t, url+"/transactions?limit=-1")

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "invalid_query"
					}`, body)
			})
		})
	})

	t.Run("create deposit request", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, s *wallet.Service, user models.User) {
				data := `{"amount": 250, "payment_method": "eft", "payment_proof": "https://pics.example.com/receipt.png"}`
				resp, err := http.Post(url+"/deposit_requests", "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()

				require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))

				var dr depositRequestResponse
				require.NoError(t, json.Unmarshal(body, &dr))
				require.Equal(t, user.ID, dr.UserID, "request should belong to the authenticated user")
				require.Equal(t, "eft", dr.PaymentMethod)
				require.Equal(t, "pending", dr.Status)

				balance, err := s.GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.True(t, balance.IsZero(), "pending request must not credit")
			})
		})

		t.Run("invalid proof url", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, _ *wallet.Service, _ models.User) {
				data := `{"amount": 250, "payment_proof": "not a url"}`
				resp, err := http.Post(url+"/deposit_requests", "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
				require.Contains(t, string(body), "validation_failed")
			})
		})

		t.Run("negative amount", func(t *testing.T) {
			inTx(pg.Pool, t, func(url string, _ *wallet.Service, _ models.User) {
				resp, err := http.Post(url+"/deposit_requests", "application/json", strings.NewReader(`{"amount": -1}`))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "invalid_amount"
					}`, string(body))
			})
		})
	})
}
