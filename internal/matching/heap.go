package matching

import "github.com/PxPatel/trading-system/internal/fixedpoint"

// maxPriceHeap and minPriceHeap track the best bid/ask price atop a
// container/heap, giving O(1) peek and O(log L) insert — the exact
// heap-based approach the reference orderbook implementation uses for its
// own best-price tracking, generalized here from int64 prices to
// arbitrary-precision fixedpoint.Amount.

type maxPriceHeap []fixedpoint.Amount

func (h maxPriceHeap) Len() int            { return len(h) }
func (h maxPriceHeap) Less(i, j int) bool  { return h[i].Cmp(h[j]) > 0 }
func (h maxPriceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxPriceHeap) Push(x interface{}) { *h = append(*h, x.(fixedpoint.Amount)) }
func (h *maxPriceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
func (h maxPriceHeap) Peek() fixedpoint.Amount { return h[0] }

type minPriceHeap []fixedpoint.Amount

func (h minPriceHeap) Len() int            { return len(h) }
func (h minPriceHeap) Less(i, j int) bool  { return h[i].Cmp(h[j]) < 0 }
func (h minPriceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minPriceHeap) Push(x interface{}) { *h = append(*h, x.(fixedpoint.Amount)) }
func (h *minPriceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
func (h minPriceHeap) Peek() fixedpoint.Amount { return h[0] }
