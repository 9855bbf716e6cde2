// Package matching implements the order book and the single-writer
// matching engine that drives it, generalizing the teacher's
// channel-driven Engine from a fire-and-forget trade stream into a
// synchronous place/cancel/cancel-all request-response driver.
package matching

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/storage"
	"github.com/PxPatel/trading-system/internal/types"
)

// requestQueueDepth bounds the per-market intake queue. A full queue makes
// PlaceOrder/CancelOrder callers block, which is the specified backpressure
// behavior — the engine never drops a request to relieve pressure.
const requestQueueDepth = 1024

type reqKind int

const (
	reqPlace reqKind = iota
	reqCancel
	reqCancelAll
)

// PlaceOrderInput is the validated request shape for place_order.
type PlaceOrderInput struct {
	User       string
	Side       types.Side
	Kind       types.OrderKind
	Price      fixedpoint.Amount  // ignored for market orders
	Size       fixedpoint.Amount  // required for limit and market sell; ignored for market buy
	FundingCap *fixedpoint.Amount // required for market buy, nil otherwise
	Signature  string
}

// PlaceOrderResult is returned synchronously from place_order.
type PlaceOrderResult struct {
	Order  *types.Order
	Trades []*types.Trade
}

type request struct {
	kind      reqKind
	place     PlaceOrderInput
	cancelID  uint64
	cancelBy  string
	reply     chan response
}

type response struct {
	order          *types.Order
	trades         []*types.Trade
	cancelledCount int
	err            error
}

// Engine owns one market's OrderBook and drives all mutations through a
// single goroutine reading requestCh, matching the single-writer-per-market
// concurrency model.
type Engine struct {
	market types.Market
	book   *OrderBook
	ledger *ledger.Ledger
	bus    *eventbus.Bus

	orderSink storage.OrderStore
	tradeSink storage.TradeStore

	requestCh chan request
	closeCh   chan struct{}
	wg        sync.WaitGroup

	mu          sync.RWMutex
	ordersByID  map[uint64]*types.Order
	ordersByUsr map[string][]uint64
	nextOrderID uint64
	degraded    bool
}

// NewEngine creates an engine for market, wires it to the shared ledger,
// event bus, and history sinks, and starts its single-writer goroutine.
func NewEngine(market types.Market, l *ledger.Ledger, bus *eventbus.Bus, orderSink storage.OrderStore, tradeSink storage.TradeStore) *Engine {
	e := &Engine{
		market:      market,
		book:        NewOrderBook(),
		ledger:      l,
		bus:         bus,
		orderSink:   orderSink,
		tradeSink:   tradeSink,
		requestCh:   make(chan request, requestQueueDepth),
		closeCh:     make(chan struct{}),
		ordersByID:  make(map[uint64]*types.Order),
		ordersByUsr: make(map[string][]uint64),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// Close stops the engine's writer goroutine. Outstanding requests already
// enqueued are drained first.
func (e *Engine) Close() {
	close(e.closeCh)
	e.wg.Wait()
}

// Market returns the immutable market configuration this engine serves.
func (e *Engine) Market() types.Market { return e.market }

// Book exposes the order book for read-only info endpoints (depth, best).
func (e *Engine) Book() *OrderBook { return e.book }

// Degraded reports whether the market has been marked degraded after an
// invariant violation. A degraded market stops accepting new orders.
func (e *Engine) Degraded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.degraded
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case req := <-e.requestCh:
			req.reply <- e.handle(req)
		case <-e.closeCh:
			for {
				select {
				case req := <-e.requestCh:
					req.reply <- e.handle(req)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) handle(req request) response {
	switch req.kind {
	case reqPlace:
		order, trades, err := e.placeOrderLocked(req.place)
		return response{order: order, trades: trades, err: err}
	case reqCancel:
		order, err := e.cancelOrderLocked(req.cancelBy, req.cancelID)
		return response{order: order, err: err}
	case reqCancelAll:
		count, err := e.cancelAllLocked(req.cancelBy)
		return response{cancelledCount: count, err: err}
	default:
		return response{err: kernelerr.New(kernelerr.InternalError, "unknown request kind")}
	}
}

// PlaceOrder submits req to the engine's queue and blocks for the
// synchronous result. Blocks (rather than dropping) if the queue is full.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceOrderInput) (*types.Order, []*types.Trade, error) {
	reply := make(chan response, 1)
	select {
	case e.requestCh <- request{kind: reqPlace, place: req, reply: reply}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.order, resp.trades, resp.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// CancelOrder submits a cancel request and blocks for the result.
func (e *Engine) CancelOrder(ctx context.Context, user string, orderID uint64) (*types.Order, error) {
	reply := make(chan response, 1)
	select {
	case e.requestCh <- request{kind: reqCancel, cancelBy: user, cancelID: orderID, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.order, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CancelAll submits a cancel-all request for user and blocks for the count.
func (e *Engine) CancelAll(ctx context.Context, user string) (int, error) {
	reply := make(chan response, 1)
	select {
	case e.requestCh <- request{kind: reqCancelAll, cancelBy: user, reply: reply}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.cancelledCount, resp.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// GetOrder returns a snapshot of a known order, or nil.
func (e *Engine) GetOrder(orderID uint64) *types.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.ordersByID[orderID]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// OpenOrdersForUser returns snapshots of user's non-terminal orders.
func (e *Engine) OpenOrdersForUser(user string) []*types.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []*types.Order
	for _, id := range e.ordersByUsr[user] {
		o := e.ordersByID[id]
		if o != nil && !o.IsTerminal() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

func (e *Engine) markDegraded() {
	e.mu.Lock()
	e.degraded = true
	e.mu.Unlock()
}

func (e *Engine) trackOrder(o *types.Order) {
	e.mu.Lock()
	e.ordersByID[o.ID] = o
	e.ordersByUsr[o.User] = append(e.ordersByUsr[o.User], o.ID)
	e.mu.Unlock()
}

func (e *Engine) publish(topic eventbus.Topic, key, eventType string, data interface{}) {
	e.bus.Publish(eventbus.Event{Topic: topic, Key: key, Type: eventType, Data: data})
}

// placeOrderLocked implements place_order (spec §4.4.1) end to end. It
// runs exclusively on the engine's single writer goroutine.
func (e *Engine) placeOrderLocked(req PlaceOrderInput) (*types.Order, []*types.Trade, error) {
	if e.Degraded() {
		return nil, nil, kernelerr.New(kernelerr.InternalError, "market is degraded")
	}

	if req.Kind == types.Limit {
		if !e.market.ValidPrice(req.Price) {
			return nil, nil, kernelerr.New(kernelerr.InvalidPrice, "price must be a positive multiple of tick size")
		}
	}

	var size fixedpoint.Amount
	if req.Kind == types.MarketOrder && req.Side == types.Buy {
		if req.FundingCap == nil || !req.FundingCap.IsPositive() {
			return nil, nil, kernelerr.New(kernelerr.InvalidOrder, "market buy requires a positive funding cap")
		}
		size = fixedpoint.Zero() // determined by liquidity, tracked via remaining logic below
	} else {
		if !e.market.ValidSize(req.Size) {
			return nil, nil, kernelerr.New(kernelerr.InvalidSize, "size must be a positive multiple of lot size and at least min size")
		}
		size = req.Size
	}

	lockToken, lockAmount, err := e.computeRequiredLock(req, size)
	if err != nil {
		return nil, nil, err
	}
	if _, err := e.ledger.Lock(req.User, lockToken, lockAmount); err != nil {
		return nil, nil, kernelerr.New(kernelerr.InsufficientFunds, "insufficient available balance to lock order funding")
	}

	e.mu.Lock()
	e.nextOrderID++
	orderID := e.nextOrderID
	e.mu.Unlock()

	now := time.Now().UTC()
	order := &types.Order{
		ID:                 orderID,
		User:               req.User,
		MarketID:           e.market.ID,
		Side:               req.Side,
		Kind:               req.Kind,
		Price:              req.Price,
		Size:               size,
		Filled:             fixedpoint.Zero(),
		Status:             types.StatusPending,
		LockedFundingToken: lockToken,
		LockedAmount:       lockAmount,
		Signature:          req.Signature,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Kind == types.MarketOrder {
		order.Price = fixedpoint.Zero()
	}
	if req.Kind == types.MarketOrder && req.Side == types.Buy {
		cp := *req.FundingCap
		order.FundingCap = cp
	}

	e.trackOrder(order)
	e.publish(eventbus.TopicUserOrders, order.User, "OrderPlaced", order)

	trades, err := e.matchLoop(order)
	if err != nil {
		e.markDegraded()
		e.releaseAll(order)
		order.Status = types.StatusRejected
		order.UpdatedAt = time.Now().UTC()
		return order, trades, kernelerr.New(kernelerr.InternalError, "settlement failed, market degraded")
	}

	if order.Kind == types.MarketOrder && order.Side == types.Buy {
		// A market buy's Size was unknown at submission time; it settles to
		// however much was actually bought against its funding cap.
		order.Size = order.Filled
		order.UpdatedAt = time.Now().UTC()
		e.releaseAll(order)
		if order.Filled.IsZero() {
			order.Status = types.StatusRejected
			return order, trades, kernelerr.New(kernelerr.InsufficientLiquidity, "no resting liquidity to fill market order")
		}
		order.Status = types.StatusFilled
		_ = e.orderSink.Save(order)
		return order, trades, nil
	}

	remaining := order.Remaining()
	if remaining.IsZero() {
		order.RecomputeStatus()
		order.UpdatedAt = time.Now().UTC()
		e.releaseAll(order)
		_ = e.orderSink.Save(order)
		return order, trades, nil
	}

	if order.Kind == types.MarketOrder {
		// Unfilled remainder of a market order is rejected back; unused
		// locks are released, and no book liquidity was consumed for the
		// portion that never matched.
		order.Status = types.StatusRejected
		order.UpdatedAt = time.Now().UTC()
		e.releaseAll(order)
		if len(trades) == 0 {
			return order, trades, kernelerr.New(kernelerr.InsufficientLiquidity, "no resting liquidity to fill market order")
		}
		return order, trades, kernelerr.New(kernelerr.InsufficientLiquidity, "insufficient resting liquidity to fully fill market order")
	}

	// Limit order rests: release the worst-case-taker-fee margin down to
	// the maker-side requirement (open question resolved in SPEC_FULL §9).
	e.shrinkToMakerLock(order)
	order.RecomputeStatus()
	order.UpdatedAt = time.Now().UTC()
	e.book.Insert(order)
	_ = e.orderSink.Save(order)
	e.publish(eventbus.TopicUserOrders, order.User, "OrderRested", order)
	e.publish(eventbus.TopicOrderBook, order.MarketID, "BookDelta", order)

	return order, trades, nil
}

// computeRequiredLock implements the four funding-lock rules of spec §4.4.1.
func (e *Engine) computeRequiredLock(req PlaceOrderInput, size fixedpoint.Amount) (token string, amount fixedpoint.Amount, err error) {
	m := e.market
	switch {
	case req.Side == types.Buy && req.Kind == types.Limit:
		notional := fixedpoint.QuoteNotional(req.Price, size, m.BaseDecimals)
		maxFeeBps := m.TakerFeeBps
		if maxFeeBps < 0 {
			maxFeeBps = 0
		}
		fee, _ := fixedpoint.Fee(maxFeeBps, notional)
		return m.QuoteTicker, notional.Add(fee), nil
	case req.Side == types.Sell && req.Kind == types.Limit:
		return m.BaseTicker, size, nil
	case req.Side == types.Buy && req.Kind == types.MarketOrder:
		return m.QuoteTicker, *req.FundingCap, nil
	case req.Side == types.Sell && req.Kind == types.MarketOrder:
		return m.BaseTicker, size, nil
	default:
		return "", fixedpoint.Zero(), kernelerr.New(kernelerr.InvalidOrder, "unrecognized side/kind combination")
	}
}

// shrinkToMakerLock implements §4.4.4: recompute the maker-side lock
// requirement for the order's remaining size and release the excess.
func (e *Engine) shrinkToMakerLock(order *types.Order) {
	target := e.restingLockTarget(order)
	if order.LockedAmount.Cmp(target) <= 0 {
		return
	}
	diff, err := order.LockedAmount.CheckedSub(target)
	if err != nil {
		return
	}
	if _, err := e.ledger.Unlock(order.User, order.LockedFundingToken, diff); err != nil {
		return
	}
	order.LockedAmount = target
}

func (e *Engine) restingLockTarget(order *types.Order) fixedpoint.Amount {
	remaining := order.Remaining()
	if order.Side == types.Sell {
		return remaining
	}
	notional := fixedpoint.QuoteNotional(order.Price, remaining, e.market.BaseDecimals)
	fee, credit := fixedpoint.Fee(e.market.MakerFeeBps, notional)
	if credit {
		return notional
	}
	return notional.Add(fee)
}

// releaseAll unlocks whatever remains of an order's own reservation —
// used on cancel, on terminal fill, and on market-order rejection.
func (e *Engine) releaseAll(order *types.Order) {
	if order.LockedAmount.IsZero() {
		return
	}
	if _, err := e.ledger.Unlock(order.User, order.LockedFundingToken, order.LockedAmount); err == nil {
		order.LockedAmount = fixedpoint.Zero()
	}
}

// matchLoop implements spec §4.4.2. The aggressor's remaining size is only
// decremented once funds have actually moved for that fill. A market buy's
// "remaining" isn't size-based (its Size is unknown up front) — it is
// bounded by its shrinking funding cap instead, tracked via LockedAmount.
func (e *Engine) matchLoop(aggressor *types.Order) ([]*types.Trade, error) {
	var trades []*types.Trade
	budgetBound := aggressor.Kind == types.MarketOrder && aggressor.Side == types.Buy

	var limitPrice *fixedpoint.Amount
	if aggressor.Kind == types.Limit {
		p := aggressor.Price
		limitPrice = &p
	}

	for {
		if !budgetBound && aggressor.Remaining().IsZero() {
			break
		}
		if budgetBound && !aggressor.LockedAmount.IsPositive() {
			break
		}
		top := e.book.MatchTop(aggressor.Side, limitPrice)
		if top == nil {
			break
		}

		var tradeSize fixedpoint.Amount
		tradePrice := top.Price
		if budgetBound {
			affordable := fixedpoint.MaxAffordableSize(tradePrice, aggressor.LockedAmount, e.market.BaseDecimals, e.market.TakerFeeBps)
			if affordable.IsZero() {
				break
			}
			tradeSize = fixedpoint.Min(affordable, top.Remaining())
		} else {
			tradeSize = fixedpoint.Min(aggressor.Remaining(), top.Remaining())
		}

		trade, err := e.executeSettlement(aggressor, top, tradeSize, tradePrice)
		if err != nil {
			return trades, err
		}
		trades = append(trades, trade)
		_ = e.tradeSink.Save(trade)
		e.publish(eventbus.TopicTrades, e.market.ID, "Trade", trade)
		e.publish(eventbus.TopicUserFills, aggressor.User, "Trade", trade)
		e.publish(eventbus.TopicUserFills, top.User, "Trade", trade)

		aggressor.Filled = aggressor.Filled.Add(tradeSize)
		top.Filled = top.Filled.Add(tradeSize)
		top.UpdatedAt = time.Now().UTC()

		if top.Remaining().IsZero() {
			top.RecomputeStatus()
			e.releaseAll(top)
			e.book.RemoveFilled(top.ID)
			_ = e.orderSink.Update(top)
			e.publish(eventbus.TopicUserOrders, top.User, "OrderFilled", top)
		} else {
			top.RecomputeStatus()
			_ = e.orderSink.Update(top)
			e.publish(eventbus.TopicUserOrders, top.User, "OrderPartiallyFilled", top)
		}
	}

	return trades, nil
}

// executeSettlement implements spec §4.4.3 for a single fill between
// aggressor and maker at tradePrice/tradeSize.
func (e *Engine) executeSettlement(aggressor, maker *types.Order, tradeSize, tradePrice fixedpoint.Amount) (*types.Trade, error) {
	m := e.market
	notional := fixedpoint.QuoteNotional(tradePrice, tradeSize, m.BaseDecimals)

	aggressorFee, aggressorCredit := fixedpoint.Fee(m.TakerFeeBps, notional)
	makerFee, makerCredit := fixedpoint.Fee(m.MakerFeeBps, notional)

	var buyer, seller *types.Order
	var buyerFee, sellerFee fixedpoint.Amount
	var buyerCredit, sellerCredit bool

	if aggressor.Side == types.Buy {
		buyer, seller = aggressor, maker
		buyerFee, buyerCredit = aggressorFee, aggressorCredit
		sellerFee, sellerCredit = makerFee, makerCredit
	} else {
		buyer, seller = maker, aggressor
		sellerFee, sellerCredit = aggressorFee, aggressorCredit
		buyerFee, buyerCredit = makerFee, makerCredit
	}

	buyerConsumed := notional
	if !buyerCredit {
		buyerConsumed = notional.Add(buyerFee)
	}

	if _, err := e.ledger.SettleLocked(buyer.User, m.QuoteTicker, buyerConsumed); err != nil {
		return nil, kernelerr.Wrap(kernelerr.InvariantViolation, "buyer quote settlement failed", err)
	}
	buyer.LockedAmount, _ = buyer.LockedAmount.CheckedSub(buyerConsumed)
	if buyerCredit && buyerFee.IsPositive() {
		e.ledger.Credit(buyer.User, m.QuoteTicker, buyerFee)
	}

	e.ledger.Credit(buyer.User, m.BaseTicker, tradeSize)

	if _, err := e.ledger.SettleLocked(seller.User, m.BaseTicker, tradeSize); err != nil {
		return nil, kernelerr.Wrap(kernelerr.InvariantViolation, "seller base settlement failed", err)
	}
	seller.LockedAmount, _ = seller.LockedAmount.CheckedSub(tradeSize)

	sellerProceeds := notional
	if sellerCredit {
		sellerProceeds = notional.Add(sellerFee)
	} else {
		reduced, err := notional.CheckedSub(sellerFee)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.InvariantViolation, "maker/taker fee exceeds notional", err)
		}
		sellerProceeds = reduced
	}
	e.ledger.Credit(seller.User, m.QuoteTicker, sellerProceeds)

	trade := &types.Trade{
		ID:              uuid.NewString(),
		MarketID:        m.ID,
		BuyerAddress:    buyer.User,
		SellerAddress:   seller.User,
		BuyerOrderID:    buyer.ID,
		SellerOrderID:   seller.ID,
		Price:           tradePrice,
		Size:            tradeSize,
		AggressorSide:   aggressor.Side,
		BuyerFee:        buyerFee,
		BuyerFeeCredit:  buyerCredit,
		SellerFee:       sellerFee,
		SellerFeeCredit: sellerCredit,
		Timestamp:       time.Now().UTC(),
	}
	return trade, nil
}

// cancelOrderLocked implements spec §4.4.5.
func (e *Engine) cancelOrderLocked(user string, orderID uint64) (*types.Order, error) {
	e.mu.RLock()
	order, ok := e.ordersByID[orderID]
	e.mu.RUnlock()
	if !ok {
		return nil, kernelerr.New(kernelerr.NotFound, "order not found")
	}
	if order.User != user {
		return nil, kernelerr.New(kernelerr.NotOwner, "order belongs to a different user")
	}
	if order.IsTerminal() {
		return nil, kernelerr.New(kernelerr.NotCancellable, "order is already terminal")
	}

	e.book.Cancel(order.ID)
	e.releaseAll(order)
	order.Status = types.StatusCancelled
	order.UpdatedAt = time.Now().UTC()
	_ = e.orderSink.Update(order)
	e.publish(eventbus.TopicUserOrders, order.User, "OrderCancelled", order)
	e.publish(eventbus.TopicOrderBook, order.MarketID, "BookDelta", order)

	cp := *order
	return &cp, nil
}

// cancelAllLocked implements the per-market half of spec §4.4.6.
func (e *Engine) cancelAllLocked(user string) (int, error) {
	e.mu.RLock()
	ids := append([]uint64(nil), e.ordersByUsr[user]...)
	e.mu.RUnlock()

	count := 0
	for _, id := range ids {
		e.mu.RLock()
		order, ok := e.ordersByID[id]
		e.mu.RUnlock()
		if !ok || order.IsTerminal() {
			continue
		}
		if _, err := e.cancelOrderLocked(user, id); err == nil {
			count++
		}
	}
	return count, nil
}
