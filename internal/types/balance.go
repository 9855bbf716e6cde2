package types

import (
	"time"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
)

// Balance is a snapshot of a (user, token) ledger entry. Amount is total
// owned atoms; Locked is the subset reserved against open orders.
// Invariant: 0 <= Locked <= Amount.
type Balance struct {
	User      string
	Token     string
	Amount    fixedpoint.Amount
	Locked    fixedpoint.Amount
	UpdatedAt time.Time
}

// Available returns Amount - Locked, the sole quantity a new order or
// withdrawal may draw upon.
func (b Balance) Available() fixedpoint.Amount {
	avail, err := b.Amount.CheckedSub(b.Locked)
	if err != nil {
		return fixedpoint.Zero()
	}
	return avail
}
