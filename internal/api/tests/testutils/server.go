package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/PxPatel/trading-system/internal/api/handlers"
	"github.com/PxPatel/trading-system/internal/api/routes"
	"github.com/PxPatel/trading-system/internal/api/ws"
	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/registry"
	"github.com/PxPatel/trading-system/internal/router"
	"github.com/PxPatel/trading-system/internal/storage/file"
	"github.com/PxPatel/trading-system/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

// TestServer wraps a live httptest server over a freshly wired kernel:
// registry, ledger, router (one engine per created market), and the same
// route table cmd/api/server.go installs in production.
type TestServer struct {
	Server *httptest.Server
	Router *router.Router
	t      testing.TB
}

// NewTestServer creates a new test server with an empty registry and no
// markets. Call CreateToken/CreateMarket to populate it.
func NewTestServer(t testing.TB) *TestServer {
	tmpDir := t.TempDir()
	tradeLogPath := filepath.Join(tmpDir, "test_trades.log")

	bus := eventbus.New()
	balanceStore := memory.NewInMemoryBalanceStore()
	ledgerInstance := ledger.New(balanceStore)
	reg := registry.New()

	orderStore := memory.NewInMemoryOrderStore(10000)
	tradeStore := memory.NewInMemoryTradeStore(10000)
	fileTradeStore, err := file.NewTradeStore(tradeLogPath)
	require.NoError(t, err, "failed to open test trade log")

	r := router.New(reg, ledgerInstance, bus, orderStore, tradeStore)

	h := handlers.New(r, reg, ledgerInstance, bus, tradeStore, balanceStore)
	hub := ws.NewHub(bus)
	handler := routes.SetupRoutes(h, hub)
	server := httptest.NewServer(handler)

	ts := &TestServer{Server: server, Router: r, t: t}
	t.Cleanup(func() {
		server.Close()
		r.Close()
		fileTradeStore.Close()
	})
	return ts
}

// Close cleans up the test server. Prefer relying on t.Cleanup registered
// by NewTestServer; Close is kept for callers that build their own defer chain.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Router.Close()
}

// URL returns the base URL for the test server
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

func (ts *TestServer) Get(path string) *http.Response {
	resp, err := http.Get(ts.URL() + path)
	require.NoError(ts.t, err, "GET request failed")
	return resp
}

func (ts *TestServer) Post(path string, body interface{}) *http.Response {
	jsonBody, err := json.Marshal(body)
	require.NoError(ts.t, err, "failed to marshal request body")

	resp, err := http.Post(ts.URL()+path, "application/json", bytes.NewBuffer(jsonBody))
	require.NoError(ts.t, err, "POST request failed")
	return resp
}

func (ts *TestServer) Delete(path string) *http.Response {
	req, err := http.NewRequest(http.MethodDelete, ts.URL()+path, nil)
	require.NoError(ts.t, err, "failed to create DELETE request")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err, "DELETE request failed")
	return resp
}

// DecodeJSON decodes JSON response into target
func DecodeJSON(t testing.TB, resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, target)
	require.NoError(t, err, "failed to decode JSON response: %s", string(body))
}

// SetupMarket creates a base/quote token pair and their market over HTTP,
// exactly the way an operator would through the admin surface, and returns
// the market id ("BASE/QUOTE").
func SetupMarket(t testing.TB, ts *TestServer, base, quote string, baseDecimals, quoteDecimals uint8, tickSize, lotSize, minSize string) string {
	resp := ts.Post("/api/v1/admin/tokens", NewCreateTokenRequest(base, baseDecimals))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Post("/api/v1/admin/tokens", NewCreateTokenRequest(quote, quoteDecimals))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Post("/api/v1/admin/markets", NewCreateMarketRequest(base, quote, tickSize, lotSize, minSize))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	return fmt.Sprintf("%s/%s", base, quote)
}

// Faucet credits a user's balance for token through the admin faucet route.
func Faucet(t testing.TB, ts *TestServer, user, token, amount string) {
	resp := ts.Post("/api/v1/admin/faucet", NewFaucetRequest(user, token, amount))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
