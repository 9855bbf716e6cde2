package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/matching"
	"github.com/PxPatel/trading-system/internal/storage/memory"
	"github.com/PxPatel/trading-system/internal/types"
)

func testMarket() types.Market {
	tick, _ := fixedpoint.FromDecimalString("0.01", 2)
	lot, _ := fixedpoint.FromDecimalString("0.0001", 4)
	min, _ := fixedpoint.FromDecimalString("0.0001", 4)
	return types.Market{
		ID:            "BTC/USD",
		BaseTicker:    "BTC",
		QuoteTicker:   "USD",
		TickSize:      tick,
		LotSize:       lot,
		MinSize:       min,
		MakerFeeBps:   0,
		TakerFeeBps:   0,
		BaseDecimals:  4,
		QuoteDecimals: 2,
	}
}

// harness bundles a running Engine with the ledger it settles against, so
// tests can fund users before placing orders.
type harness struct {
	engine *matching.Engine
	ledger *ledger.Ledger
	market types.Market
}

func newHarness(t testing.TB) *harness {
	market := testMarket()
	balanceStore := memory.NewInMemoryBalanceStore()
	l := ledger.New(balanceStore)
	bus := eventbus.New()
	orderStore := memory.NewInMemoryOrderStore(1000)
	tradeStore := memory.NewInMemoryTradeStore(1000)

	e := matching.NewEngine(market, l, bus, orderStore, tradeStore)
	t.Cleanup(e.Close)

	return &harness{engine: e, ledger: l, market: market}
}

func (h *harness) fund(user, token, amount string) {
	amt, err := fixedpoint.FromDecimalString(amount, decimalsFor(h.market, token))
	if err != nil {
		panic(err)
	}
	h.ledger.Credit(user, token, amt)
}

func decimalsFor(m types.Market, token string) uint8 {
	if token == m.BaseTicker {
		return m.BaseDecimals
	}
	return m.QuoteDecimals
}

func limitBuy(user, price, size string, decimals [2]uint8) matching.PlaceOrderInput {
	p, _ := fixedpoint.FromDecimalString(price, decimals[1])
	s, _ := fixedpoint.FromDecimalString(size, decimals[0])
	return matching.PlaceOrderInput{User: user, Side: types.Buy, Kind: types.Limit, Price: p, Size: s, Signature: "sig"}
}

func limitSell(user, price, size string, decimals [2]uint8) matching.PlaceOrderInput {
	p, _ := fixedpoint.FromDecimalString(price, decimals[1])
	s, _ := fixedpoint.FromDecimalString(size, decimals[0])
	return matching.PlaceOrderInput{User: user, Side: types.Sell, Kind: types.Limit, Price: p, Size: s, Signature: "sig"}
}

func marketBuy(user, fundingCap string, quoteDecimals uint8) matching.PlaceOrderInput {
	fc, _ := fixedpoint.FromDecimalString(fundingCap, quoteDecimals)
	return matching.PlaceOrderInput{User: user, Side: types.Buy, Kind: types.MarketOrder, FundingCap: &fc, Signature: "sig"}
}

func (h *harness) decimals() [2]uint8 { return [2]uint8{h.market.BaseDecimals, h.market.QuoteDecimals} }

func TestEngineLimitOrderRestsWithNoLiquidity(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "USD", "10000")

	order, trades, err := h.engine.PlaceOrder(context.Background(), limitBuy("alice", "100.00", "1", h.decimals()))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, types.StatusPending, order.Status)

	best := h.engine.Book().Best(types.Buy)
	require.NotNil(t, best)
	assert.Equal(t, order.ID, best.ID)
}

func TestEngineCrossingLimitOrdersMatchAtMakerPrice(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "BTC", "10")
	h.fund("bob", "USD", "10000")

	sell, _, err := h.engine.PlaceOrder(context.Background(), limitSell("alice", "100.00", "1", h.decimals()))
	require.NoError(t, err)

	buy, trades, err := h.engine.PlaceOrder(context.Background(), limitBuy("bob", "105.00", "1", h.decimals()))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "100.00", trades[0].Price.ToDecimalString(2), "trade executes at the resting maker's price")
	assert.Equal(t, sell.ID, trades[0].SellerOrderID)
	assert.Equal(t, buy.ID, trades[0].BuyerOrderID)
	assert.Equal(t, types.StatusFilled, buy.Status)
}

func TestEngineRejectsInvalidPrice(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "USD", "10000")

	badPrice, _ := fixedpoint.FromDecimalString("100.005", 2)
	size, _ := fixedpoint.FromDecimalString("1", 4)
	_, _, err := h.engine.PlaceOrder(context.Background(), matching.PlaceOrderInput{
		User: "alice", Side: types.Buy, Kind: types.Limit, Price: badPrice, Size: size, Signature: "sig",
	})
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.InvalidPrice))
}

func TestEngineRejectsInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	// alice has no USD balance at all
	_, _, err := h.engine.PlaceOrder(context.Background(), limitBuy("alice", "100.00", "1", h.decimals()))
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.InsufficientFunds))
}

func TestEngineMarketBuyStopsAtFundingCap(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "BTC", "10")
	h.fund("bob", "USD", "10000")

	h.engine.PlaceOrder(context.Background(), limitSell("alice", "100.00", "1", h.decimals()))
	h.engine.PlaceOrder(context.Background(), limitSell("alice", "101.00", "1", h.decimals()))

	order, trades, err := h.engine.PlaceOrder(context.Background(), marketBuy("bob", "100.00", h.market.QuoteDecimals))
	require.NoError(t, err)
	require.Len(t, trades, 1, "funding cap of 100.00 only covers the first ask level")
	assert.Equal(t, "1.0000", order.Filled.ToDecimalString(h.market.BaseDecimals))
}

func TestEngineMarketBuyRejectsWithNoLiquidity(t *testing.T) {
	h := newHarness(t)
	h.fund("bob", "USD", "10000")

	_, _, err := h.engine.PlaceOrder(context.Background(), marketBuy("bob", "500.00", h.market.QuoteDecimals))
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.InsufficientLiquidity))
}

func TestEngineCancelOrderReleasesLockAndRemovesFromBook(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "USD", "10000")

	order, _, err := h.engine.PlaceOrder(context.Background(), limitBuy("alice", "100.00", "1", h.decimals()))
	require.NoError(t, err)

	before := h.ledger.Snapshot("alice", "USD")
	assert.True(t, before.Locked.IsPositive())

	cancelled, err := h.engine.CancelOrder(context.Background(), "alice", order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, cancelled.Status)

	after := h.ledger.Snapshot("alice", "USD")
	assert.True(t, after.Locked.IsZero(), "cancellation should release the full lock")
	assert.Nil(t, h.engine.Book().Best(types.Buy))
}

func TestEngineCancelOrderRejectsWrongOwner(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "USD", "10000")

	order, _, err := h.engine.PlaceOrder(context.Background(), limitBuy("alice", "100.00", "1", h.decimals()))
	require.NoError(t, err)

	_, err = h.engine.CancelOrder(context.Background(), "bob", order.ID)
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.NotOwner))
}

func TestEngineCancelAllCancelsEveryOpenOrderForUser(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "USD", "10000")

	h.engine.PlaceOrder(context.Background(), limitBuy("alice", "100.00", "1", h.decimals()))
	h.engine.PlaceOrder(context.Background(), limitBuy("alice", "99.00", "1", h.decimals()))

	n, err := h.engine.CancelAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, h.engine.Book().Best(types.Buy))
}

func TestEngineConservationAcrossATrade(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "BTC", "10")
	h.fund("bob", "USD", "10000")

	totalBTCBefore := h.ledger.Snapshot("alice", "BTC").Amount.Add(h.ledger.Snapshot("bob", "BTC").Amount)
	totalUSDBefore := h.ledger.Snapshot("alice", "USD").Amount.Add(h.ledger.Snapshot("bob", "USD").Amount)

	h.engine.PlaceOrder(context.Background(), limitSell("alice", "100.00", "1", h.decimals()))
	h.engine.PlaceOrder(context.Background(), limitBuy("bob", "100.00", "1", h.decimals()))

	totalBTCAfter := h.ledger.Snapshot("alice", "BTC").Amount.Add(h.ledger.Snapshot("bob", "BTC").Amount)
	totalUSDAfter := h.ledger.Snapshot("alice", "USD").Amount.Add(h.ledger.Snapshot("bob", "USD").Amount)

	assert.Equal(t, 0, totalBTCBefore.Cmp(totalBTCAfter), "a trade must not create or destroy base token")
	assert.Equal(t, 0, totalUSDBefore.Cmp(totalUSDAfter), "a trade must not create or destroy quote token")
}

func TestEngineBookNeverEndsUpCrossed(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", "BTC", "10")
	h.fund("bob", "USD", "10000")

	h.engine.PlaceOrder(context.Background(), limitSell("alice", "100.00", "1", h.decimals()))
	h.engine.PlaceOrder(context.Background(), limitBuy("bob", "105.00", "2", h.decimals()))

	assert.False(t, h.engine.Book().Crossed())
}
