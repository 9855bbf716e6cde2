package types

import "github.com/PxPatel/trading-system/internal/fixedpoint"

// Market is an immutable-once-created trading pair configuration.
// TickSize and LotSize are expressed in quote and base atoms respectively.
// Fee bps are signed: negative means rebate.
type Market struct {
	ID            string // "BASE/QUOTE"
	BaseTicker    string
	QuoteTicker   string
	TickSize      fixedpoint.Amount
	LotSize       fixedpoint.Amount
	MinSize       fixedpoint.Amount
	MakerFeeBps   int32
	TakerFeeBps   int32
	BaseDecimals  uint8
	QuoteDecimals uint8
}

// ValidPrice reports whether price is a positive multiple of the tick size.
func (m Market) ValidPrice(price fixedpoint.Amount) bool {
	return price.IsPositive() && price.DivisibleBy(m.TickSize)
}

// ValidSize reports whether size is a positive multiple of the lot size and
// at least the market minimum.
func (m Market) ValidSize(size fixedpoint.Amount) bool {
	if !size.IsPositive() {
		return false
	}
	if !size.DivisibleBy(m.LotSize) {
		return false
	}
	return size.Cmp(m.MinSize) >= 0
}
