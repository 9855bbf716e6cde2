package types

import (
	"time"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderKind distinguishes resting limit orders from immediate-or-cancel
// market orders. No stop, iceberg, or OCO variants are in scope.
type OrderKind string

const (
	Limit       OrderKind = "limit"
	MarketOrder OrderKind = "market"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
)

// Order is a resting or terminal order. Only the owning MatchingEngine may
// mutate an order once created.
type Order struct {
	ID       uint64
	User     string
	MarketID string
	Side     Side
	Kind     OrderKind
	Price    fixedpoint.Amount // zero for market orders
	Size     fixedpoint.Amount
	Filled   fixedpoint.Amount
	Status   OrderStatus

	// FundingCap is the maximum quote atoms a market buy will spend. Unused
	// for limit orders and market sells.
	FundingCap fixedpoint.Amount

	// LockedFundingToken/LockedAmount record what is currently reserved in
	// the Ledger against this order, so cancellation and rest-time lock
	// adjustment know exactly what to release.
	LockedFundingToken string
	LockedAmount       fixedpoint.Amount

	Signature string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Remaining returns Size - Filled.
func (o *Order) Remaining() fixedpoint.Amount {
	rem, err := o.Size.CheckedSub(o.Filled)
	if err != nil {
		// Filled must never exceed Size; a violation here is a bug upstream.
		return fixedpoint.Zero()
	}
	return rem
}

// IsTerminal reports whether the order can no longer be matched or cancelled.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// RecomputeStatus derives status from Filled vs Size for a non-terminal order.
func (o *Order) RecomputeStatus() {
	if o.Filled.IsZero() {
		o.Status = StatusPending
		return
	}
	if o.Filled.Cmp(o.Size) >= 0 {
		o.Status = StatusFilled
		return
	}
	o.Status = StatusPartiallyFilled
}
