package models

import "strings"

// CreateTokenRequest registers a new currency with the registry.
type CreateTokenRequest struct {
	Ticker         string `json:"ticker"`
	Decimals       uint8  `json:"decimals"`
	Name           string `json:"name"`
	AdminSignature string `json:"admin_signature"`
}

func (r *CreateTokenRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.Ticker) == "" {
		return ErrBadRequest("ticker cannot be empty", map[string]interface{}{"field": "ticker"})
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrBadRequest("name cannot be empty", map[string]interface{}{"field": "name"})
	}
	return nil
}

// CreateMarketRequest registers a new trading pair. Tick/lot/min sizes are
// decimal strings in the relevant token's human units.
type CreateMarketRequest struct {
	BaseTicker     string `json:"base_ticker"`
	QuoteTicker    string `json:"quote_ticker"`
	TickSize       string `json:"tick_size"`
	LotSize        string `json:"lot_size"`
	MinSize        string `json:"min_size"`
	MakerFeeBps    int32  `json:"maker_fee_bps"`
	TakerFeeBps    int32  `json:"taker_fee_bps"`
	AdminSignature string `json:"admin_signature"`
}

func (r *CreateMarketRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.BaseTicker) == "" || strings.TrimSpace(r.QuoteTicker) == "" {
		return ErrBadRequest("base_ticker and quote_ticker are required", nil)
	}
	if strings.TrimSpace(r.TickSize) == "" || strings.TrimSpace(r.LotSize) == "" || strings.TrimSpace(r.MinSize) == "" {
		return ErrBadRequest("tick_size, lot_size and min_size are required", nil)
	}
	return nil
}

// PlaceOrderRequest submits a new order to a market. Price is required for
// limit orders; Size is required except for market buys, which instead
// require FundingCap.
type PlaceOrderRequest struct {
	User        string  `json:"user"`
	Side        string  `json:"side"` // "buy" | "sell"
	Kind        string  `json:"kind"` // "limit" | "market"
	Price       string  `json:"price,omitempty"`
	Size        string  `json:"size,omitempty"`
	FundingCap  string  `json:"funding_cap,omitempty"`
	Signature   string  `json:"signature,omitempty"`
}

func (r *PlaceOrderRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.User) == "" {
		return ErrBadRequest("user cannot be empty", map[string]interface{}{"field": "user"})
	}
	side := strings.ToLower(strings.TrimSpace(r.Side))
	if side != "buy" && side != "sell" {
		return ErrBadRequest("side must be 'buy' or 'sell'", map[string]interface{}{"field": "side", "provided_value": r.Side})
	}
	kind := strings.ToLower(strings.TrimSpace(r.Kind))
	if kind != "limit" && kind != "market" {
		return ErrBadRequest("kind must be 'limit' or 'market'", map[string]interface{}{"field": "kind", "provided_value": r.Kind})
	}
	if kind == "limit" {
		if strings.TrimSpace(r.Price) == "" {
			return ErrBadRequest("price is required for limit orders", map[string]interface{}{"field": "price"})
		}
		if strings.TrimSpace(r.Size) == "" {
			return ErrBadRequest("size is required for limit orders", map[string]interface{}{"field": "size"})
		}
	}
	if kind == "market" {
		if side == "buy" && strings.TrimSpace(r.FundingCap) == "" {
			return ErrBadRequest("funding_cap is required for market buys", map[string]interface{}{"field": "funding_cap"})
		}
		if side == "sell" && strings.TrimSpace(r.Size) == "" {
			return ErrBadRequest("size is required for market sells", map[string]interface{}{"field": "size"})
		}
	}
	return nil
}

// FaucetRequest credits a user's balance for a token, a test/dev aid with
// no counterparty debit.
type FaucetRequest struct {
	User           string `json:"user"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	AdminSignature string `json:"admin_signature"`
}

func (r *FaucetRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.User) == "" {
		return ErrBadRequest("user cannot be empty", map[string]interface{}{"field": "user"})
	}
	if strings.TrimSpace(r.Token) == "" {
		return ErrBadRequest("token cannot be empty", map[string]interface{}{"field": "token"})
	}
	if strings.TrimSpace(r.Amount) == "" {
		return ErrBadRequest("amount cannot be empty", map[string]interface{}{"field": "amount"})
	}
	return nil
}
