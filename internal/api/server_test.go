package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/kivoro-ledger/internal/ledger"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	store := ledger.NewStore(memory.NewMemoryStore())
	l := ledger.NewLedger(store, ledger.WithMetrics(ledger.NewMetrics(reg)), ledger.WithLogger(zerolog.Nop()))
	return NewServer(l, reg, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) models.Result {
	t.Helper()
	var res models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_BalanceIsSeededAndFormatted(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/accounts/alice/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID    string `json:"userId"`
		Currency  string `json:"currency"`
		Formatted struct {
			Available string `json:"available"`
		} `json:"formatted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.UserID)
	assert.Equal(t, "USD", body.Currency)
	assert.Equal(t, "$5,000.00", body.Formatted.Available)
}

func TestServer_BuySellFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/accounts/alice/orders/buy",
		`{"symbol":"AAPL","amountUSD":"100","estimatedShares":"0.5","currentPrice":"200"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeResult(t, rec).Success)

	rec = do(t, s, http.MethodPost, "/accounts/alice/orders/sell",
		`{"symbol":"AAPL","quantity":0.5,"estimatedAmount":120,"currentPrice":240}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/accounts/alice/transactions?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionSell, txs[0].Type)
}

func TestServer_ResultStatusCodes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/accounts/alice/orders/buy",
		`{"symbol":"AAPL","amountUSD":"999999","estimatedShares":"1","currentPrice":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, models.KindInsufficientFunds, decodeResult(t, rec).Kind)

	rec = do(t, s, http.MethodPost, "/accounts/alice/topup", `{"amount":"-5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, models.KindInvalidAmount, decodeResult(t, rec).Kind)

	rec = do(t, s, http.MethodPost, "/accounts/alice/orders/sell", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/alice/orders/buy", `{"amountUSD":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/accounts/alice/transactions?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DividendTopUpAndReset(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/accounts/alice/topup", `{"amount":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/alice/dividends", `{"symbol":"MSFT","amount":"2.5"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/alice/dividends", `{"amount":"2.5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/accounts/alice/transactions", "")
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	assert.Len(t, txs, 2)

	rec = do(t, s, http.MethodPost, "/accounts/alice/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/accounts/alice/transactions", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/accounts/alice/topup", `{"amount":"10"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kivoro_ledger_operations_total{operation="topup",result="success"} 1`)
}

func TestServer_RejectsMalformedAccountIDs(t *testing.T) {
	kv := memory.NewMemoryStore()
	l := ledger.NewLedger(ledger.NewStore(kv), ledger.WithLogger(zerolog.Nop()))
	s := NewServer(l, prometheus.NewRegistry(), zerolog.Nop())

	for _, path := range []string{
		"/accounts/bad%20id/balance",
		"/accounts/" + strings.Repeat("a", 65) + "/balance",
		"/accounts/%3Cscript%3E/transactions",
	} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	rec := do(t, s, http.MethodPost, "/accounts/bad%20id/topup", `{"amount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, kv.Len(), "rejected ids must not seed storage")

	rec = do(t, s, http.MethodGet, "/accounts/user_1.test-A/balance", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RejectsOversizedBodies(t *testing.T) {
	s := newTestServer(t)
	big := `{"symbol":"` + strings.Repeat("A", maxBodyBytes) + `","quantity":"1","price":"1"}`

	rec := do(t, s, http.MethodPost, "/accounts/alice/orders/buy", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/alice/orders/buy", `{"symbol":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/accounts/alice/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"availableBalance":"5000`)
}
