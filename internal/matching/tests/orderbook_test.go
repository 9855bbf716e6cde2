package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/matching"
	"github.com/PxPatel/trading-system/internal/types"
)

func price(s string) fixedpoint.Amount {
	amt, err := fixedpoint.FromDecimalString(s, 2)
	if err != nil {
		panic(err)
	}
	return amt
}

func size(s string) fixedpoint.Amount {
	amt, err := fixedpoint.FromDecimalString(s, 4)
	if err != nil {
		panic(err)
	}
	return amt
}

func testOrder(id uint64, side types.Side, p, sz string) *types.Order {
	return &types.Order{
		ID:        id,
		User:      "user",
		MarketID:  "BTC/USD",
		Side:      side,
		Kind:      types.Limit,
		Price:     price(p),
		Size:      size(sz),
		Status:    types.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestOrderBookEmptyHasNoBest(t *testing.T) {
	ob := matching.NewOrderBook()
	assert.Nil(t, ob.Best(types.Buy))
	assert.Nil(t, ob.Best(types.Sell))
}

func TestOrderBookBestBidIsHighestPrice(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "100.00", "10"))
	ob.Insert(testOrder(2, types.Buy, "99.00", "5"))
	ob.Insert(testOrder(3, types.Buy, "101.00", "8"))

	best := ob.Best(types.Buy)
	require.NotNil(t, best)
	assert.Equal(t, uint64(3), best.ID, "highest bid price should be best")
}

func TestOrderBookBestAskIsLowestPrice(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Sell, "102.00", "10"))
	ob.Insert(testOrder(2, types.Sell, "100.00", "5"))
	ob.Insert(testOrder(3, types.Sell, "101.00", "8"))

	best := ob.Best(types.Sell)
	require.NotNil(t, best)
	assert.Equal(t, uint64(2), best.ID, "lowest ask price should be best")
}

func TestOrderBookFIFOWithinLevel(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Sell, "100.00", "5"))
	ob.Insert(testOrder(2, types.Sell, "100.00", "8"))

	best := ob.Best(types.Sell)
	require.NotNil(t, best)
	assert.Equal(t, uint64(1), best.ID, "earlier order at the same price wins time priority")
}

func TestOrderBookCancelRemovesOrderAndEmptyLevel(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "100.00", "10"))

	assert.True(t, ob.Cancel(1))
	assert.Nil(t, ob.Best(types.Buy), "level should be gone once its only order is cancelled")
	assert.False(t, ob.Cancel(1), "cancelling twice reports not-found")
}

func TestOrderBookCancelLeavesOtherOrdersInLevel(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "100.00", "10"))
	ob.Insert(testOrder(2, types.Buy, "100.00", "5"))

	ob.Cancel(1)
	best := ob.Best(types.Buy)
	require.NotNil(t, best)
	assert.Equal(t, uint64(2), best.ID)
}

func TestOrderBookMatchTopRespectsLimitPrice(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Sell, "101.00", "10"))

	limit := price("100.00")
	assert.Nil(t, ob.MatchTop(types.Buy, &limit), "a buy limited to 100 should not cross a 101 ask")

	higherLimit := price("101.00")
	top := ob.MatchTop(types.Buy, &higherLimit)
	require.NotNil(t, top)
	assert.Equal(t, uint64(1), top.ID)
}

func TestOrderBookMatchTopMarketAggressorIgnoresPrice(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Sell, "999.00", "10"))

	top := ob.MatchTop(types.Buy, nil)
	require.NotNil(t, top)
	assert.Equal(t, uint64(1), top.ID)
}

func TestOrderBookDepthSnapshotAggregatesPerLevel(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "100.00", "5"))
	ob.Insert(testOrder(2, types.Buy, "100.00", "3"))
	ob.Insert(testOrder(3, types.Buy, "99.00", "10"))
	ob.Insert(testOrder(4, types.Sell, "101.00", "7"))

	bids, asks := ob.DepthSnapshot(10)
	require.Len(t, bids, 2)
	assert.Equal(t, "100.00", bids[0].Price.ToDecimalString(2))
	assert.Equal(t, "8.0000", bids[0].Size.ToDecimalString(4), "the two orders at 100.00 should aggregate")
	assert.Equal(t, 2, bids[0].OrderCount)
	assert.Equal(t, "99.00", bids[1].Price.ToDecimalString(2))

	require.Len(t, asks, 1)
	assert.Equal(t, "101.00", asks[0].Price.ToDecimalString(2))
}

func TestOrderBookDepthSnapshotRespectsMaxLevels(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "100.00", "1"))
	ob.Insert(testOrder(2, types.Buy, "99.00", "1"))
	ob.Insert(testOrder(3, types.Buy, "98.00", "1"))

	bids, _ := ob.DepthSnapshot(2)
	assert.Len(t, bids, 2)
}

func TestOrderBookNotCrossedWhenEmptyOrOneSided(t *testing.T) {
	ob := matching.NewOrderBook()
	assert.False(t, ob.Crossed())

	ob.Insert(testOrder(1, types.Buy, "100.00", "1"))
	assert.False(t, ob.Crossed())
}

func TestOrderBookCrossedDetectsOverlappingBook(t *testing.T) {
	ob := matching.NewOrderBook()
	ob.Insert(testOrder(1, types.Buy, "101.00", "1"))
	ob.Insert(testOrder(2, types.Sell, "100.00", "1"))
	assert.True(t, ob.Crossed(), "bid at 101 crossing an ask at 100 is an illegal state")
}
