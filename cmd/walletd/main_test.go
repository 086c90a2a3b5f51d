package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pazardigital/walletd/internal/testutil"
)

func Test_ServerApp(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	t.Run("stops gracefully on context cancel", func(t *testing.T) {
		config := NewConfig()
		config.ListenAddr = listenAddr
		config.DatabaseDSN = pg.DSN
		config.SecretKey = "secret"

		srv, err := NewServerApp(t.Context(), config)
		require.NoError(t, err, "app should initialize with valid config")

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err = srv.Run(ctx)

		require.ErrorIs(t, err, http.ErrServerClosed, "graceful stop should surface ErrServerClosed")
	})

	t.Run("fail without secret key", func(t *testing.T) {
		config := NewConfig()
		config.ListenAddr = listenAddr
		config.DatabaseDSN = pg.DSN

		_, err := NewServerApp(t.Context(), config)

		require.Error(t, err, "app must not start without a secret key")
	})
}
