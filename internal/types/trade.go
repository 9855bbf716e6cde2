package types

import (
	"time"

	"github.com/PxPatel/trading-system/internal/fixedpoint"
)

// AggressorSide records which side of the trade was the incoming taker.
type AggressorSide = Side

// Trade is an immutable record of a single fill. Trade ids are UUIDv4,
// grounded on the original engine's Uuid::new_v4() per-fill minting.
type Trade struct {
	ID              string
	MarketID        string
	BuyerAddress    string
	SellerAddress   string
	BuyerOrderID    uint64
	SellerOrderID   uint64
	Price           fixedpoint.Amount
	Size            fixedpoint.Amount
	AggressorSide   AggressorSide
	BuyerFee        fixedpoint.Amount // magnitude; direction given by BuyerFeeCredit
	BuyerFeeCredit  bool
	SellerFee       fixedpoint.Amount
	SellerFeeCredit bool
	Timestamp       time.Time
}
