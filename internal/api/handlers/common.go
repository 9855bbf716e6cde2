// Package handlers implements the HTTP surface over the registry, ledger,
// and per-market matching engines, translating between the kernel's exact
// atom-denominated types and the wire's decimal-string representation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PxPatel/trading-system/internal/api/logger"
	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/fixedpoint"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/registry"
	"github.com/PxPatel/trading-system/internal/router"
	"github.com/PxPatel/trading-system/internal/storage"
	"github.com/PxPatel/trading-system/internal/types"
)

// Handlers holds the kernel components every route needs.
type Handlers struct {
	Router   *router.Router
	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Bus      *eventbus.Bus

	tradeStore   storage.TradeStore
	balanceStore storage.BalanceStore
}

// New wires a Handlers from the running kernel.
func New(r *router.Router, reg *registry.Registry, l *ledger.Ledger, bus *eventbus.Bus, tradeStore storage.TradeStore, balanceStore storage.BalanceStore) *Handlers {
	return &Handlers{
		Router:       r,
		Registry:     reg,
		Ledger:       l,
		Bus:          bus,
		tradeStore:   tradeStore,
		balanceStore: balanceStore,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, httpErr *models.HTTPError) {
	logger.Warn("Request failed", map[string]interface{}{
		"error_code": httpErr.Error.Code,
		"status":     httpErr.StatusCode,
	})

	writeJSON(w, httpErr.StatusCode, models.BaseResponse{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Message:   httpErr.Error.Message,
		Error:     &httpErr.Error,
	})
}

func decodeJSON(r *http.Request, dst interface{}) *models.HTTPError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.ErrBadRequest("invalid JSON body", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func toTokenDTO(t types.Token) models.TokenDTO {
	return models.TokenDTO{Ticker: t.Ticker, Decimals: t.Decimals, Name: t.Name}
}

func toMarketDTO(m types.Market) models.MarketDTO {
	return models.MarketDTO{
		ID:            m.ID,
		BaseTicker:    m.BaseTicker,
		QuoteTicker:   m.QuoteTicker,
		TickSize:      m.TickSize.ToDecimalString(m.QuoteDecimals),
		LotSize:       m.LotSize.ToDecimalString(m.BaseDecimals),
		MinSize:       m.MinSize.ToDecimalString(m.BaseDecimals),
		MakerFeeBps:   m.MakerFeeBps,
		TakerFeeBps:   m.TakerFeeBps,
		BaseDecimals:  m.BaseDecimals,
		QuoteDecimals: m.QuoteDecimals,
	}
}

func toOrderDTO(o *types.Order, market types.Market) models.OrderDTO {
	dto := models.OrderDTO{
		OrderID:   o.ID,
		User:      o.User,
		MarketID:  o.MarketID,
		Side:      string(o.Side),
		Kind:      string(o.Kind),
		Filled:    o.Filled.ToDecimalString(market.BaseDecimals),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Kind == types.Limit {
		dto.Price = o.Price.ToDecimalString(market.QuoteDecimals)
		dto.Size = o.Size.ToDecimalString(market.BaseDecimals)
		dto.Remaining = o.Remaining().ToDecimalString(market.BaseDecimals)
	}
	if o.Kind == types.MarketOrder {
		if o.Side == types.Buy {
			dto.FundingCap = o.FundingCap.ToDecimalString(market.QuoteDecimals)
		} else {
			dto.Size = o.Size.ToDecimalString(market.BaseDecimals)
		}
	}
	return dto
}

func toTradeDTO(t *types.Trade, market types.Market) models.TradeDTO {
	return models.TradeDTO{
		ID:              t.ID,
		MarketID:        t.MarketID,
		BuyerAddress:    t.BuyerAddress,
		SellerAddress:   t.SellerAddress,
		BuyerOrderID:    t.BuyerOrderID,
		SellerOrderID:   t.SellerOrderID,
		Price:           t.Price.ToDecimalString(market.QuoteDecimals),
		Size:            t.Size.ToDecimalString(market.BaseDecimals),
		AggressorSide:   string(t.AggressorSide),
		BuyerFee:        t.BuyerFee.ToDecimalString(market.QuoteDecimals),
		BuyerFeeCredit:  t.BuyerFeeCredit,
		SellerFee:       t.SellerFee.ToDecimalString(market.QuoteDecimals),
		SellerFeeCredit: t.SellerFeeCredit,
		Timestamp:       t.Timestamp,
	}
}

func toBalanceDTO(b types.Balance, decimals uint8) models.BalanceDTO {
	return models.BalanceDTO{
		User:      b.User,
		Token:     b.Token,
		Amount:    b.Amount.ToDecimalString(decimals),
		Locked:    b.Locked.ToDecimalString(decimals),
		Available: b.Available().ToDecimalString(decimals),
		UpdatedAt: b.UpdatedAt,
	}
}

// parseAmount parses a decimal wire string against decimals, returning a
// models bad-request error tagged with fieldName on failure.
func parseAmount(fieldName, value string, decimals uint8) (fixedpoint.Amount, *models.HTTPError) {
	amt, err := fixedpoint.FromDecimalString(value, decimals)
	if err != nil {
		return fixedpoint.Amount{}, models.ErrBadRequest(err.Error(), map[string]interface{}{"field": fieldName})
	}
	return amt, nil
}
