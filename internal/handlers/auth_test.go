package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/pazardigital/walletd/internal/logger"
	"github.com/pazardigital/walletd/internal/repository/postgres"
	"github.com/pazardigital/walletd/internal/service/auth"
	"github.com/pazardigital/walletd/internal/testutil"
)

func Test_AuthHandler(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with auth handlers attached
	// Production auth service over a rolled back transaction
	inTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(url string, s *auth.Service)) {
		testutil.InTx(dbpool, t, func(tx pgx.Tx) {
			s, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, postgres.NewStorage(tx))
			require.NoError(t, err, "auth service starting error")

			srv := httptest.NewServer(NewAuth(s, logger.NewNoOp()).Handler())
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	post := func(t *testing.T, url string, data string) (*http.Response, string) {
		resp, err := http.Post(url, "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp, string(body)
	}

	t.Run("register ok", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, _ *auth.Service) {
			resp, body := post(t, url+"/register", `{"username": "odagan", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEmpty(t, pair.AccessToken, "access token should be in response")
			require.NotEmpty(t, pair.RefreshToken, "refresh token should be in response")
			require.False(t, pair.AccessExpiresAt.IsZero())
			require.False(t, pair.RefreshExpiresAt.IsZero())
		})
	})

	t.Run("register existed user fails", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *auth.Service) {
			_, err := s.Register(t.Context(), "odagan", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/register", `{"username": "odagan", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "user_already_exists"
				}`, body)
		})
	})

	t.Run("register short password fails", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, _ *auth.Service) {
			resp, body := post(t, url+"/register", `{"username": "odagan", "password": "short"}`)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "validation_failed")
			require.Contains(t, body, "password")
		})
	})

	t.Run("login ok", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *auth.Service) {
			_, err := s.Register(t.Context(), "odagan", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/login", `{"username": "odagan", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEmpty(t, pair.AccessToken)
			require.NotEmpty(t, pair.RefreshToken)
		})
	})

	t.Run("login wrong password fails", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *auth.Service) {
			_, err := s.Register(t.Context(), "odagan", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/login", `{"username": "odagan", "password": "WrongPassword"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "invalid_credentials"
				}`, body)
		})
	})

	t.Run("refresh ok", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *auth.Service) {
			initialPair, err := s.Register(t.Context(), "odagan", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/refresh", `{"refresh_token": "`+initialPair.Refresh.Value+`"}`)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEqual(t, initialPair.Access.Value, pair.AccessToken, "access token should be changed after refresh")
			require.NotEqual(t, initialPair.Refresh.Value, pair.RefreshToken, "refresh token should be changed after refresh")
		})
	})

	t.Run("refresh twice fails", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, s *auth.Service) {
			initialPair, err := s.Register(t.Context(), "odagan", "StrongEnoughPassword")
			require.NoError(t, err)

			data := `{"refresh_token": "` + initialPair.Refresh.Value + `"}`

			resp, body := post(t, url+"/refresh", data)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = post(t, url+"/refresh", data)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "refresh_token_invalid"
				}`, body)
		})
	})

	t.Run("refresh unknown token fails", func(t *testing.T) {
		inTx(pg.Pool, t, func(url string, _ *auth.Service) {
			resp, body := post(t, url+"/refresh", `{"refresh_token": "never-issued"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "refresh_token_invalid"
				}`, body)
		})
	})
}
