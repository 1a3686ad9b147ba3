package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/infrastructure/auth"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	owner  string
	auth   string
	body   string
}

func newTestServer(t *testing.T, status int, response any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			owner:  r.Header.Get("X-Owner-ID"),
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBalance(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, dto.BalanceResponse{OwnerID: "alice", Balance: "150.00", Currency: "XAF"})

	out, err := execute(t, "--url", srv.URL, "--owner", "alice", "balance")
	require.NoError(t, err)

	assert.Equal(t, "150.00 XAF\n", out)
	require.Len(t, *requests, 1)
	assert.Equal(t, "/api/v1/balance", (*requests)[0].path)
	assert.Equal(t, "alice", (*requests)[0].owner)
}

func TestEntriesAdd(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated, dto.EntryResponse{ID: "01A", Date: "2024-06-05", Balance: "-50.00"})

	out, err := execute(t, "--url", srv.URL, "--token", "tok",
		"entries", "add", "--date", "2024-06-05", "--description", "groceries", "--debit", "50", "--category", "food")
	require.NoError(t, err)

	assert.Contains(t, out, "Recorded 01A on 2024-06-05, balance -50.00")
	require.Len(t, *requests, 1)

	got := (*requests)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer tok", got.auth)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.body), &sent))
	assert.Equal(t, "50", sent["debit"])
	assert.Equal(t, "food", sent["category"])
	assert.NotContains(t, sent, "credit")
}

func TestEntriesAdd_RequiresOneSide(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated, nil)

	_, err := execute(t, "--url", srv.URL, "entries", "add", "--description", "nothing")
	require.Error(t, err)

	_, err = execute(t, "--url", srv.URL, "entries", "add", "--credit", "1", "--debit", "1")
	require.Error(t, err)

	_, err = execute(t, "--url", srv.URL, "entries", "add", "--credit", "ten")
	require.Error(t, err)

	assert.Empty(t, *requests)
}

func TestEntriesList(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, []dto.EntryResponse{
		{ID: "01A", Date: "2024-06-01", Description: "salary", Credit: "200.00", Debit: "0.00", Balance: "200.00"},
		{ID: "01B", Date: "2024-06-03", Description: "rent", Credit: "0.00", Debit: "80.00", Balance: "120.00"},
	})

	out, err := execute(t, "--url", srv.URL, "entries", "list", "--all")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "rent")
	assert.Equal(t, "include_finalized=true", (*requests)[0].query)
}

func TestEntriesRm_ReportsServerError(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusConflict, dto.ErrorResponse{Error: "failed to delete entry", Message: "entry is already finalized"})

	_, err := execute(t, "--url", srv.URL, "entries", "rm", "01A")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "already finalized")
	assert.Equal(t, http.MethodDelete, (*requests)[0].method)
	assert.Equal(t, "/api/v1/entries/01A", (*requests)[0].path)
}

func TestFinalize(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusCreated, dto.SummaryResponse{Period: "2024-06", EntryCount: 2, ClosingBalance: "150.00"})

	out, err := execute(t, "--url", srv.URL, "finalize")
	require.NoError(t, err)
	assert.Equal(t, "Finalized 2024-06: 2 entries, closing balance 150.00\n", out)
}

func TestLedgerConsistency(t *testing.T) {
	t.Run("passed", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, dto.ConsistencyResponse{Consistent: true, EntriesChecked: 2})

		out, err := execute(t, "--url", srv.URL, "ledger", "consistency")
		require.NoError(t, err)
		assert.Contains(t, out, "Consistency check PASSED")
	})

	t.Run("failed", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusConflict, dto.ConsistencyResponse{
			Mismatches: []dto.MismatchResponse{{EntryID: "01A", Stored: "999.00", Expected: "100.00"}},
		})

		out, err := execute(t, "--url", srv.URL, "ledger", "consistency")
		require.Error(t, err)
		assert.Contains(t, out, "01A stored 999.00 expected 100.00")
	})

	t.Run("repaired", func(t *testing.T) {
		srv, requests := newTestServer(t, http.StatusOK, dto.ConsistencyResponse{Repaired: true})

		out, err := execute(t, "--url", srv.URL, "ledger", "consistency", "--repair")
		require.NoError(t, err)
		assert.Contains(t, out, "REPAIRED")
		assert.Equal(t, "repair=true", (*requests)[0].query)
	})
}

func TestToken(t *testing.T) {
	out, err := execute(t, "token", "--owner", "alice", "--secret", "s3cret", "--provider", "google")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "google:alice", claims.Principal().OwnerID())
}
