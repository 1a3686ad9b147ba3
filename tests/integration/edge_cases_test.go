package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adaptershttp "github.com/iho/fintrack/internal/adapter/http"
	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/adapter/http/handler"
	apimiddleware "github.com/iho/fintrack/internal/adapter/http/middleware"
	redisrepo "github.com/iho/fintrack/internal/adapter/repository/redis"
	infraredis "github.com/iho/fintrack/internal/infrastructure/redis"
	"github.com/iho/fintrack/tests/testutil"
)

func TestHTTPEdgeCases(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL is not set")
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	// Keys outlive the test; a per-run prefix keeps reruns independent.
	run := time.Now().Format("150405.000000")

	l := db.NewLedger(time.Now().UTC(), 3)
	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(l.UseCase),
		LedgerHandler:    handler.NewLedgerHandler(l.UseCase, l.Reconciler, "XAF"),
		HealthHandler:    handler.NewHealthHandler(db.Pool.Ping, infraredis.Check(redisClient)),
		IdempotencyStore: redisrepo.NewIdempotencyStore(redisClient),
		Logger:           zerolog.Nop(),
	})

	send := func(method, target, body, key string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set(apimiddleware.OwnerHeader, "alice")
		if key != "" {
			r.Header.Set(apimiddleware.IdempotencyKeyHeader, run+"-"+key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	t.Run("ready", func(t *testing.T) {
		w := send(http.MethodGet, "/ready", "", "")
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("idempotent create is replayed", func(t *testing.T) {
		db.TruncateAll(ctx)

		first := send(http.MethodPost, "/api/v1/entries", `{"credit":"100"}`, "create-1")
		require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

		second := send(http.MethodPost, "/api/v1/entries", `{"credit":"100"}`, "create-1")
		require.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		w := send(http.MethodGet, "/api/v1/balance", "", "")
		var balance dto.BalanceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &balance))
		assert.Equal(t, "100.00", balance.Balance, "the replay must not record a second entry")
	})

	t.Run("failed create releases the key", func(t *testing.T) {
		db.TruncateAll(ctx)

		w := send(http.MethodPost, "/api/v1/entries", `{"credit":"1","debit":"1"}`, "create-2")
		require.Equal(t, http.StatusBadRequest, w.Code)

		w = send(http.MethodPost, "/api/v1/entries", `{"credit":"1"}`, "create-2")
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("unknown currency is rejected", func(t *testing.T) {
		w := send(http.MethodPost, "/api/v1/entries", `{"credit":"1","currency":"ZZZ"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("finalizing an empty ledger", func(t *testing.T) {
		db.TruncateAll(ctx)

		w := send(http.MethodPost, "/api/v1/ledger/finalize", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
