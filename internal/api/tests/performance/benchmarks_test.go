package performance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/api/tests/testutils"
	"github.com/stretchr/testify/require"
)

func setupBenchMarket(tb testing.TB) (*testutils.TestServer, string) {
	ts := testutils.NewTestServer(tb)
	marketID := testutils.SetupMarket(tb, ts, "BTC", "USD", 8, 2, "0.01", "0.0001", "0.0001")
	for _, user := range []string{"alice", "bob", "user", "lp", "mm", "trader"} {
		testutils.Faucet(tb, ts, user, "BTC", "100000")
		testutils.Faucet(tb, ts, user, "USD", "100000000")
	}
	return ts, marketID
}

func ordersPath(marketID string) string {
	return fmt.Sprintf("/api/v1/markets/%s/orders", marketID)
}

// BenchmarkOrderSubmissionThroughput measures orders per second.
func BenchmarkOrderSubmissionThroughput(b *testing.B) {
	ts, marketID := setupBenchMarket(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		price := fmt.Sprintf("%.2f", 100.0+float64(i%100)*0.01)
		order := testutils.NewLimitBuyOrder("user", price, "10")
		resp := ts.Post(ordersPath(marketID), order)
		require.Equal(b, 200, resp.StatusCode)
		resp.Body.Close()
	}

	ordersPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(ordersPerSec, "orders/sec")
}

// BenchmarkMarketOrderExecution measures market order matching speed.
func BenchmarkMarketOrderExecution(b *testing.B) {
	ts, marketID := setupBenchMarket(b)

	for i := 0; i < 100; i++ {
		price := fmt.Sprintf("%.2f", 100.0+float64(i)*0.01)
		ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", price, "10")).Body.Close()
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		resp := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("bob", "1000.00"))
		require.Equal(b, 200, resp.StatusCode)
		resp.Body.Close()
	}

	executionsPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(executionsPerSec, "executions/sec")
}

// BenchmarkOrderBookSnapshot measures orderbook retrieval speed.
func BenchmarkOrderBookSnapshot(b *testing.B) {
	ts, marketID := setupBenchMarket(b)

	for i := 0; i < 50; i++ {
		bidPrice := fmt.Sprintf("%.2f", 99.0-float64(i)*0.01)
		askPrice := fmt.Sprintf("%.2f", 101.0+float64(i)*0.01)
		ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("alice", bidPrice, "10")).Body.Close()
		ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("bob", askPrice, "10")).Body.Close()
	}

	b.ResetTimer()
	b.ReportAllocs()

	path := fmt.Sprintf("/api/v1/markets/%s/orderbook?depth=10", marketID)
	for i := 0; i < b.N; i++ {
		resp := ts.Get(path)
		require.Equal(b, 200, resp.StatusCode)
		resp.Body.Close()
	}

	snapshotsPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(snapshotsPerSec, "snapshots/sec")
}

// BenchmarkConcurrentOrderSubmission measures concurrent request handling
// against a single market's single-writer engine goroutine.
func BenchmarkConcurrentOrderSubmission(b *testing.B) {
	ts, marketID := setupBenchMarket(b)

	concurrency := 10
	b.SetParallelism(concurrency)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			price := fmt.Sprintf("%.2f", 100.0+float64(i%100)*0.01)
			order := testutils.NewLimitBuyOrder("user", price, "10")
			resp := ts.Post(ordersPath(marketID), order)
			require.Equal(b, 200, resp.StatusCode)
			resp.Body.Close()
			i++
		}
	})

	ordersPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(ordersPerSec, "orders/sec")
}

// TestHighFrequencyTradingSimulation runs a short mixed liquidity-provider,
// market-maker, and aggressive-trader workload against one market.
func TestHighFrequencyTradingSimulation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping HFT simulation in short mode")
	}

	ts, marketID := setupBenchMarket(t)

	duration := 2 * time.Second
	var orderCount atomic.Uint64
	var tradeCount atomic.Uint64

	liquidityProvider := func() {
		for start := time.Now(); time.Since(start) < duration; {
			price := fmt.Sprintf("%.2f", 100.0+float64(time.Now().UnixNano()%100)*0.01)
			ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("lp", price, "10")).Body.Close()
			orderCount.Add(1)
			time.Sleep(10 * time.Millisecond)
		}
	}

	marketMaker := func() {
		for start := time.Now(); time.Since(start) < duration; {
			ts.Post(ordersPath(marketID), testutils.NewLimitBuyOrder("mm", "99.95", "5")).Body.Close()
			ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("mm", "100.05", "5")).Body.Close()
			orderCount.Add(2)
			time.Sleep(50 * time.Millisecond)
		}
	}

	aggressiveTrader := func() {
		for start := time.Now(); time.Since(start) < duration; {
			resp := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("trader", "500.00"))
			if resp.StatusCode == 200 {
				var result models.PlaceOrderResponse
				testutils.DecodeJSON(t, resp, &result)
				tradeCount.Add(uint64(len(result.Trades)))
			} else {
				resp.Body.Close()
			}
			orderCount.Add(1)
			time.Sleep(20 * time.Millisecond)
		}
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); liquidityProvider() }()
	go func() { defer wg.Done(); marketMaker() }()
	go func() { defer wg.Done(); aggressiveTrader() }()
	go func() { defer wg.Done(); aggressiveTrader() }()
	wg.Wait()

	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()
	t.Logf("HFT simulation (%v): orders=%d trades=%d orders/sec=%.2f trades/sec=%.2f",
		duration, totalOrders, totalTrades,
		float64(totalOrders)/duration.Seconds(), float64(totalTrades)/duration.Seconds())

	require.Greater(t, totalOrders, uint64(0), "should process orders")
}

// TestLoadStressTest fires many concurrent orders at one market and expects
// every request to succeed; the single-writer engine goroutine serializes
// them, so no order should be rejected under contention.
func TestLoadStressTest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	ts, marketID := setupBenchMarket(t)

	numWorkers := 20
	ordersPerWorker := 50

	var wg sync.WaitGroup
	var successCount atomic.Uint64
	var errorCount atomic.Uint64

	for w := 0; w < numWorkers; w++ {
		testutils.Faucet(t, ts, fmt.Sprintf("worker%d", w), "USD", "100000000")
	}

	start := time.Now()

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < ordersPerWorker; i++ {
				price := fmt.Sprintf("%.2f", 100.0+float64(i%50)*0.01)
				order := testutils.NewLimitBuyOrder(fmt.Sprintf("worker%d", workerID), price, "5")
				resp := ts.Post(ordersPath(marketID), order)
				if resp.StatusCode == 200 {
					successCount.Add(1)
				} else {
					errorCount.Add(1)
				}
				resp.Body.Close()
			}
		}(w)
	}

	wg.Wait()
	elapsed := time.Since(start)

	totalOrders := numWorkers * ordersPerWorker
	throughput := float64(totalOrders) / elapsed.Seconds()

	t.Logf("load test: workers=%d orders_per_worker=%d total=%d duration=%v throughput=%.2f/sec success=%d errors=%d",
		numWorkers, ordersPerWorker, totalOrders, elapsed, throughput, successCount.Load(), errorCount.Load())

	require.Equal(t, uint64(totalOrders), successCount.Load(), "all orders should succeed")
	require.Zero(t, errorCount.Load(), "no errors expected")
}

// TestLatencyMeasurement measures end-to-end request latency for market
// buys against a pre-populated book.
func TestLatencyMeasurement(t *testing.T) {
	ts, marketID := setupBenchMarket(t)

	for i := 0; i < 50; i++ {
		price := fmt.Sprintf("%.2f", 100.0+float64(i)*0.01)
		ts.Post(ordersPath(marketID), testutils.NewLimitSellOrder("alice", price, "10")).Body.Close()
	}

	numRequests := 200
	latencies := make([]time.Duration, numRequests)

	for i := 0; i < numRequests; i++ {
		start := time.Now()
		resp := ts.Post(ordersPath(marketID), testutils.NewMarketBuyOrder("bob", "50.00"))
		latencies[i] = time.Since(start)
		require.Equal(t, 200, resp.StatusCode)
		resp.Body.Close()
	}

	var total time.Duration
	min, max := latencies[0], latencies[0]
	for _, lat := range latencies {
		total += lat
		if lat < min {
			min = lat
		}
		if lat > max {
			max = lat
		}
	}
	avg := total / time.Duration(numRequests)

	sorted := make([]time.Duration, numRequests)
	copy(sorted, latencies)
	for i := 0; i < numRequests; i++ {
		for j := i + 1; j < numRequests; j++ {
			if sorted[i] > sorted[j] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	p95 := sorted[int(float64(numRequests)*0.95)]

	t.Logf("latency over %d requests: min=%v max=%v avg=%v p95=%v", numRequests, min, max, avg, p95)

	require.Less(t, avg, 100*time.Millisecond, "average latency should stay well under 100ms in-process")
}
