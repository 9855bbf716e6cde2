package models

import "time"

// BaseResponse is the base structure for all API responses.
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}

// TokenDTO represents a registered token.
type TokenDTO struct {
	Ticker   string `json:"ticker"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
}

// MarketDTO represents a registered trading pair. All size fields are
// decimal strings in the base/quote token's own human units.
type MarketDTO struct {
	ID            string `json:"id"`
	BaseTicker    string `json:"base_ticker"`
	QuoteTicker   string `json:"quote_ticker"`
	TickSize      string `json:"tick_size"`
	LotSize       string `json:"lot_size"`
	MinSize       string `json:"min_size"`
	MakerFeeBps   int32  `json:"maker_fee_bps"`
	TakerFeeBps   int32  `json:"taker_fee_bps"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
}

// OrderDTO represents an order in API responses. Price/Size/Filled/
// FundingCap are decimal strings, empty when not applicable to the order.
type OrderDTO struct {
	OrderID    uint64 `json:"order_id"`
	User       string `json:"user"`
	MarketID   string `json:"market_id"`
	Side       string `json:"side"`
	Kind       string `json:"kind"`
	Price      string `json:"price,omitempty"`
	Size       string `json:"size,omitempty"`
	Filled     string `json:"filled"`
	Remaining  string `json:"remaining,omitempty"`
	FundingCap string `json:"funding_cap,omitempty"`
	Status     string `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TradeDTO represents a single fill in API responses.
type TradeDTO struct {
	ID              string    `json:"id"`
	MarketID        string    `json:"market_id"`
	BuyerAddress    string    `json:"buyer_address"`
	SellerAddress   string    `json:"seller_address"`
	BuyerOrderID    uint64    `json:"buyer_order_id"`
	SellerOrderID   uint64    `json:"seller_order_id"`
	Price           string    `json:"price"`
	Size            string    `json:"size"`
	AggressorSide   string    `json:"aggressor_side"`
	BuyerFee        string    `json:"buyer_fee"`
	BuyerFeeCredit  bool      `json:"buyer_fee_credit"`
	SellerFee       string    `json:"seller_fee"`
	SellerFeeCredit bool      `json:"seller_fee_credit"`
	Timestamp       time.Time `json:"timestamp"`
}

// BalanceDTO represents a (user, token) ledger snapshot.
type BalanceDTO struct {
	User      string    `json:"user"`
	Token     string    `json:"token"`
	Amount    string    `json:"amount"`
	Locked    string    `json:"locked"`
	Available string    `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceLevel is one aggregated level in an order book depth snapshot.
type PriceLevel struct {
	Price      string `json:"price"`
	Size       string `json:"size"`
	OrderCount int    `json:"order_count"`
}

// OrderBookResponse represents a depth snapshot for a market.
type OrderBookResponse struct {
	BaseResponse
	MarketID string       `json:"market_id"`
	Bids     []PriceLevel `json:"bids"`
	Asks     []PriceLevel `json:"asks"`
}

// BestQuote represents the best bid or ask.
type BestQuote struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// TopOfBookResponse represents the best bid and ask for a market.
type TopOfBookResponse struct {
	BaseResponse
	MarketID string     `json:"market_id"`
	BestBid  *BestQuote `json:"best_bid,omitempty"`
	BestAsk  *BestQuote `json:"best_ask,omitempty"`
}

// PlaceOrderResponse represents the response for order placement.
type PlaceOrderResponse struct {
	BaseResponse
	Order  *OrderDTO  `json:"order,omitempty"`
	Trades []TradeDTO `json:"trades,omitempty"`
}

// CancelOrderResponse represents the response for order cancellation.
type CancelOrderResponse struct {
	BaseResponse
	Order *OrderDTO `json:"order,omitempty"`
}

// CancelAllResponse represents the response for cancel-all.
type CancelAllResponse struct {
	BaseResponse
	CancelledCount int `json:"cancelled_count"`
}

// GetOrderResponse represents the response for getting a single order.
type GetOrderResponse struct {
	BaseResponse
	Order *OrderDTO `json:"order,omitempty"`
}

// GetOrdersResponse represents the response for getting multiple orders.
type GetOrdersResponse struct {
	BaseResponse
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

// GetTradesResponse represents the response for getting trades.
type GetTradesResponse struct {
	BaseResponse
	Trades []TradeDTO `json:"trades"`
	Count  int        `json:"count"`
}

// GetBalancesResponse represents the response for getting a user's balances.
type GetBalancesResponse struct {
	BaseResponse
	Balances []BalanceDTO `json:"balances"`
}

// GetTokensResponse represents the response for listing tokens.
type GetTokensResponse struct {
	BaseResponse
	Tokens []TokenDTO `json:"tokens"`
}

// GetMarketsResponse represents the response for listing markets.
type GetMarketsResponse struct {
	BaseResponse
	Markets []MarketDTO `json:"markets"`
}

// CreateTokenResponse represents the response for token creation.
type CreateTokenResponse struct {
	BaseResponse
	Token *TokenDTO `json:"token,omitempty"`
}

// CreateMarketResponse represents the response for market creation.
type CreateMarketResponse struct {
	BaseResponse
	Market *MarketDTO `json:"market,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Version       string    `json:"version"`
}
