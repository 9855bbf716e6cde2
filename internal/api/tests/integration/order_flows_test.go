package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/api/tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersPath(marketID string) string {
	return fmt.Sprintf("/api/v1/markets/%s/orders", marketID)
}

// setupBTCUSD creates a BTC/USD market and funds alice, bob, and charlie
// with enough of each side to place the orders each test needs.
func setupBTCUSD(t testing.TB) (*testutils.TestServer, string) {
	ts := testutils.NewTestServer(t)
	marketID := testutils.SetupMarket(t, ts, "BTC", "USD", 8, 2, "0.01", "0.0001", "0.0001")

	for _, user := range []string{"alice", "bob", "charlie", "dave"} {
		testutils.Faucet(t, ts, user, "BTC", "1000")
		testutils.Faucet(t, ts, user, "USD", "1000000")
	}
	return ts, marketID
}

func TestSimpleMarketOrderFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	sell1 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "100.00", "10"))
	require.Equal(t, http.StatusOK, sell1.StatusCode)
	sell1.Body.Close()

	sell2 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "101.00", "20"))
	require.Equal(t, http.StatusOK, sell2.StatusCode)
	sell2.Body.Close()

	buy := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("bob", "1000.00"))
	require.Equal(t, http.StatusOK, buy.StatusCode)

	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	assert.True(t, buyResp.Success)
	assert.NotZero(t, buyResp.Order.OrderID)
	require.Len(t, buyResp.Trades, 1, "should fill entirely from the first ask level")
	assert.Equal(t, "100.00", buyResp.Trades[0].Price, "should execute at best ask price")

	ob := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	var obResp models.OrderBookResponse
	testutils.DecodeJSON(t, ob, &obResp)
	assert.Empty(t, obResp.Bids, "no bids should remain")
	assert.Len(t, obResp.Asks, 1, "one ask level should remain")
}

func TestLimitOrderAddToBookFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	buy1 := ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("alice", "99.00", "10"))
	require.Equal(t, http.StatusOK, buy1.StatusCode)

	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy1, &buyResp)
	assert.True(t, buyResp.Success)
	assert.Empty(t, buyResp.Trades, "should not match immediately")

	sell1 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("bob", "101.00", "20"))
	require.Equal(t, http.StatusOK, sell1.StatusCode)
	sell1.Body.Close()

	obResp := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	require.Equal(t, http.StatusOK, obResp.StatusCode)

	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)

	assert.True(t, ob.Success)
	require.Len(t, ob.Bids, 1)
	require.Len(t, ob.Asks, 1)
	assert.Equal(t, "99.00", ob.Bids[0].Price)
	assert.Equal(t, "101.00", ob.Asks[0].Price)
}

func TestAggressiveLimitOrderFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	sell := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "100.00", "15"))
	require.Equal(t, http.StatusOK, sell.StatusCode)
	sell.Body.Close()

	buy := ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("bob", "100.00", "10"))
	require.Equal(t, http.StatusOK, buy.StatusCode)

	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	assert.True(t, buyResp.Success)
	require.Len(t, buyResp.Trades, 1)
	assert.Equal(t, "100.00", buyResp.Trades[0].Price)
	assert.Equal(t, "10.00000000", buyResp.Trades[0].Size)

	obResp := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)

	require.Len(t, ob.Asks, 1)
	assert.Equal(t, "5.00000000", ob.Asks[0].Size, "remaining 5 units should be in book")
}

func TestPartialFillFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	r1 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "100.00", "5"))
	r1.Body.Close()
	r2 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("bob", "101.00", "8"))
	r2.Body.Close()

	buy := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("charlie", "5000.00"))
	require.Equal(t, http.StatusOK, buy.StatusCode)

	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	assert.True(t, buyResp.Success)
	require.Len(t, buyResp.Trades, 2, "should sweep both ask levels")
}

func TestOrderCancellationFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	resp := ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("alice", "99.00", "10"))
	var orderResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, resp, &orderResp)
	orderID := orderResp.Order.OrderID

	cancelResp := ts.Delete(fmt.Sprintf("/api/v1/markets/%s/orders/%d?user=alice", marketID, orderID))
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	var cancelResult models.CancelOrderResponse
	testutils.DecodeJSON(t, cancelResp, &cancelResult)
	assert.True(t, cancelResult.Success)

	obResp := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)
	assert.Empty(t, ob.Bids, "cancelled order should be removed from the book")
}

func TestOrderCancellationRequiresOwner(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	resp := ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("alice", "99.00", "10"))
	var orderResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, resp, &orderResp)
	orderID := orderResp.Order.OrderID

	cancelResp := ts.Delete(fmt.Sprintf("/api/v1/markets/%s/orders/%d?user=bob", marketID, orderID))
	assert.Equal(t, http.StatusForbidden, cancelResp.StatusCode)
	cancelResp.Body.Close()
}

func TestPriceTimePriorityFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	resp1 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "100.00", "5"))
	var order1 models.PlaceOrderResponse
	testutils.DecodeJSON(t, resp1, &order1)

	resp2 := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("bob", "100.00", "8"))
	resp2.Body.Close()

	buy := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("dave", "600.00"))
	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	require.Len(t, buyResp.Trades, 2)
	assert.Equal(t, order1.Order.OrderID, buyResp.Trades[0].SellerOrderID, "should match alice's order first, resting earlier at the same price")
}

func TestCrossedOrderBookFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	sell := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", "100.00", "10"))
	sell.Body.Close()

	buy := ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("bob", "105.00", "10"))
	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	require.Len(t, buyResp.Trades, 1)
	assert.Equal(t, "100.00", buyResp.Trades[0].Price, "should execute at the resting order's price, not the aggressor's")

	obResp := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)
	assert.Empty(t, ob.Bids)
	assert.Empty(t, ob.Asks)
}

func TestMultiLevelExecutionFlow(t *testing.T) {
	ts, marketID := setupBTCUSD(t)

	for _, o := range []struct{ user, price, size string }{
		{"alice", "100.00", "5"},
		{"bob", "101.00", "10"},
		{"charlie", "102.00", "8"},
	} {
		r := ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder(o.user, o.price, o.size))
		r.Body.Close()
	}

	buy := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("dave", "1816.00"))
	var buyResp models.PlaceOrderResponse
	testutils.DecodeJSON(t, buy, &buyResp)

	assert.True(t, buyResp.Success)
	require.Len(t, buyResp.Trades, 3, "should sweep all three price levels")
	assert.Equal(t, "100.00", buyResp.Trades[0].Price)
	assert.Equal(t, "101.00", buyResp.Trades[1].Price)
	assert.Equal(t, "102.00", buyResp.Trades[2].Price)

	obResp := ts.Get(fmt.Sprintf("/api/v1/markets/%s/orderbook", marketID))
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)
	require.Len(t, ob.Asks, 1, "one ask level should remain")
	assert.Equal(t, "102.00", ob.Asks[0].Price)
	assert.Equal(t, "5.00000000", ob.Asks[0].Size, "5 units remain from the original 8")
}

func TestUnknownMarketReturns404(t *testing.T) {
	ts := testutils.NewTestServer(t)

	resp := ts.Post(ordersPath("ETH/USD"), testutils.NewLimitBuyOrder("alice", "10.00", "1"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateMarketRejectsWrongAdminSignature(t *testing.T) {
	ts := testutils.NewTestServer(t)

	req := testutils.NewCreateTokenRequest("BTC", 8)
	req.AdminSignature = "not-admin"
	resp := ts.Post("/api/v1/admin/tokens", req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
