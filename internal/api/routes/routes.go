// Package routes wires the HTTP command surface: admin token/market
// creation, per-market order placement and cancellation, order book and
// trade history queries, and per-user balance lookups.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/PxPatel/trading-system/internal/api/handlers"
	"github.com/PxPatel/trading-system/internal/api/middleware"
	"github.com/PxPatel/trading-system/internal/api/ws"
)

// marketPath prefixes the market-scoped routes. Market ids have the form
// BASE/QUOTE, so the variable's pattern admits exactly one slash.
const marketPath = "/api/v1/markets/{marketId:[^/]+/[^/]+}"

// SetupRoutes configures all API routes with middleware.
func SetupRoutes(h *handlers.Handlers, hub *ws.Hub) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/health", h.HealthHandler).Methods(http.MethodGet)

	// Admin
	r.HandleFunc("/api/v1/admin/tokens", h.CreateTokenHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/admin/markets", h.CreateMarketHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/admin/faucet", h.FaucetHandler).Methods(http.MethodPost)

	// Info
	r.HandleFunc("/api/v1/tokens", h.ListTokensHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/markets", h.ListMarketsHandler).Methods(http.MethodGet)

	// Orders (market-scoped)
	r.HandleFunc(marketPath+"/orders", h.PlaceOrderHandler).Methods(http.MethodPost)
	r.HandleFunc(marketPath+"/orders", h.GetOpenOrdersHandler).Methods(http.MethodGet)
	r.HandleFunc(marketPath+"/orders/{orderId}", h.GetOrderHandler).Methods(http.MethodGet)
	r.HandleFunc(marketPath+"/orders/{orderId}", h.CancelOrderHandler).Methods(http.MethodDelete)
	r.HandleFunc(marketPath+"/orders", h.CancelAllHandler).Methods(http.MethodDelete)

	// Cancel-all fan-out across every market for a user
	r.HandleFunc("/api/v1/orders", h.CancelAllHandler).Methods(http.MethodDelete)

	// Order book
	r.HandleFunc(marketPath+"/orderbook", h.GetOrderBookHandler).Methods(http.MethodGet)
	r.HandleFunc(marketPath+"/orderbook/top", h.GetTopOfBookHandler).Methods(http.MethodGet)

	// Trades
	r.HandleFunc(marketPath+"/trades", h.GetTradesHandler).Methods(http.MethodGet)

	// Balances
	r.HandleFunc("/api/v1/users/{user}/balances", h.GetBalancesHandler).Methods(http.MethodGet)

	// WebSocket event streams
	r.HandleFunc("/api/v1/ws", hub.ServeWS)

	// Apply middleware (order matters: Recovery -> CORS -> Logging -> router)
	var handler http.Handler = r
	handler = middleware.Logging(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(handler)

	return handler
}
