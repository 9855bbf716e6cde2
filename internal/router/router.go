// Package router dispatches command-surface requests to the owning
// market's matching engine, generalizing the teacher's single-engine
// cmd/api/server.go wiring into a per-market fan-out.
package router

import (
	"context"
	"sync"

	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/matching"
	"github.com/PxPatel/trading-system/internal/registry"
	"github.com/PxPatel/trading-system/internal/storage"
	"github.com/PxPatel/trading-system/internal/types"
)

// Router owns one Engine per registered market and routes every mutating
// or order-scoped read operation to it. Market/token admin reads and
// cross-market balance reads bypass the engine queues entirely, since
// they don't touch book or lock state.
type Router struct {
	registry *registry.Registry
	ledger   *ledger.Ledger

	orderSink storage.OrderStore
	tradeSink storage.TradeStore
	bus       *eventbus.Bus

	mu      sync.RWMutex
	engines map[string]*matching.Engine
}

// New creates a router with no engines. Call RegisterMarket after each
// admin CreateMarket call to spin up its engine.
func New(reg *registry.Registry, l *ledger.Ledger, bus *eventbus.Bus, orderSink storage.OrderStore, tradeSink storage.TradeStore) *Router {
	return &Router{
		registry:  reg,
		ledger:    l,
		bus:       bus,
		orderSink: orderSink,
		tradeSink: tradeSink,
		engines:   make(map[string]*matching.Engine),
	}
}

// RegisterMarket starts a new engine for an already-registered market.
func (r *Router) RegisterMarket(market types.Market) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[market.ID]; ok {
		return
	}
	r.engines[market.ID] = matching.NewEngine(market, r.ledger, r.bus, r.orderSink, r.tradeSink)
}

func (r *Router) engineFor(marketID string) (*matching.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[marketID]
	if !ok {
		return nil, kernelerr.New(kernelerr.UnknownMarket, "unknown market: "+marketID)
	}
	return e, nil
}

// PlaceOrder routes to marketID's engine.
func (r *Router) PlaceOrder(ctx context.Context, marketID string, req matching.PlaceOrderInput) (*types.Order, []*types.Trade, error) {
	e, err := r.engineFor(marketID)
	if err != nil {
		return nil, nil, err
	}
	return e.PlaceOrder(ctx, req)
}

// CancelOrder routes to marketID's engine.
func (r *Router) CancelOrder(ctx context.Context, marketID, user string, orderID uint64) (*types.Order, error) {
	e, err := r.engineFor(marketID)
	if err != nil {
		return nil, err
	}
	return e.CancelOrder(ctx, user, orderID)
}

// CancelAll cancels a user's open orders. When marketID is empty, every
// registered market's engine is asked in turn; otherwise only that market's.
func (r *Router) CancelAll(ctx context.Context, marketID, user string) (int, error) {
	if marketID != "" {
		e, err := r.engineFor(marketID)
		if err != nil {
			return 0, err
		}
		return e.CancelAll(ctx, user)
	}

	r.mu.RLock()
	engines := make([]*matching.Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.RUnlock()

	total := 0
	for _, e := range engines {
		n, err := e.CancelAll(ctx, user)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// OrderBook returns marketID's order book, for depth/best-price reads.
func (r *Router) OrderBook(marketID string) (*matching.OrderBook, error) {
	e, err := r.engineFor(marketID)
	if err != nil {
		return nil, err
	}
	return e.Book(), nil
}

// GetOrder returns a snapshot of orderID in marketID.
func (r *Router) GetOrder(marketID string, orderID uint64) (*types.Order, error) {
	e, err := r.engineFor(marketID)
	if err != nil {
		return nil, err
	}
	o := e.GetOrder(orderID)
	if o == nil {
		return nil, kernelerr.New(kernelerr.NotFound, "order not found")
	}
	return o, nil
}

// OpenOrdersForUser returns a user's open orders in marketID, or across
// every market when marketID is empty.
func (r *Router) OpenOrdersForUser(marketID, user string) []*types.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if marketID != "" {
		if e, ok := r.engines[marketID]; ok {
			return e.OpenOrdersForUser(user)
		}
		return nil
	}
	var out []*types.Order
	for _, e := range r.engines {
		out = append(out, e.OpenOrdersForUser(user)...)
	}
	return out
}

// Close stops every engine's writer goroutine.
func (r *Router) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.engines {
		e.Close()
	}
}
