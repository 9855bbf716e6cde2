package handlers

import (
	"net/http"
	"time"

	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/kernelerr"
	"github.com/PxPatel/trading-system/internal/types"
)

// CreateTokenHandler registers a new token. Trusts req.AdminSignature the
// same way place_order trusts an order's signature field.
func (h *Handlers) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTokenRequest
	if httpErr := decodeJSON(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := checkAdminSignature(req.AdminSignature); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	token := types.Token{Ticker: req.Ticker, Decimals: req.Decimals, Name: req.Name}
	if err := h.Registry.CreateToken(token); err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	dto := toTokenDTO(token)
	writeJSON(w, http.StatusCreated, models.CreateTokenResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC(), Message: "token created"},
		Token:        &dto,
	})
}

// CreateMarketHandler registers a new trading pair and starts its engine.
// Trusts req.AdminSignature the same way place_order trusts an order's
// signature field.
func (h *Handlers) CreateMarketHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMarketRequest
	if httpErr := decodeJSON(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := checkAdminSignature(req.AdminSignature); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	base, err := h.Registry.Token(req.BaseTicker)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}
	quote, err := h.Registry.Token(req.QuoteTicker)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	tickSize, httpErr := parseAmount("tick_size", req.TickSize, quote.Decimals)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	lotSize, httpErr := parseAmount("lot_size", req.LotSize, base.Decimals)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	minSize, httpErr := parseAmount("min_size", req.MinSize, base.Decimals)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	market := types.Market{
		ID:            base.Ticker + "/" + quote.Ticker,
		BaseTicker:    base.Ticker,
		QuoteTicker:   quote.Ticker,
		TickSize:      tickSize,
		LotSize:       lotSize,
		MinSize:       minSize,
		MakerFeeBps:   req.MakerFeeBps,
		TakerFeeBps:   req.TakerFeeBps,
		BaseDecimals:  base.Decimals,
		QuoteDecimals: quote.Decimals,
	}
	if err := h.Registry.CreateMarket(market); err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}
	h.Router.RegisterMarket(market)

	dto := toMarketDTO(market)
	writeJSON(w, http.StatusCreated, models.CreateMarketResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC(), Message: "market created"},
		Market:       &dto,
	})
}

// ListTokensHandler lists every registered token.
func (h *Handlers) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	tokens := h.Registry.Tokens()
	dtos := make([]models.TokenDTO, len(tokens))
	for i, t := range tokens {
		dtos[i] = toTokenDTO(t)
	}
	writeJSON(w, http.StatusOK, models.GetTokensResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Tokens:       dtos,
	})
}

// ListMarketsHandler lists every registered market.
func (h *Handlers) ListMarketsHandler(w http.ResponseWriter, r *http.Request) {
	markets := h.Registry.Markets()
	dtos := make([]models.MarketDTO, len(markets))
	for i, m := range markets {
		dtos[i] = toMarketDTO(m)
	}
	writeJSON(w, http.StatusOK, models.GetMarketsResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Markets:      dtos,
	})
}

// FaucetHandler credits a user's balance directly, a test/dev aid with no
// counterparty debit. Trusts req.AdminSignature.
func (h *Handlers) FaucetHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FaucetRequest
	if httpErr := decodeJSON(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := checkAdminSignature(req.AdminSignature); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	token, err := h.Registry.Token(req.Token)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	amount, httpErr := parseAmount("amount", req.Amount, token.Decimals)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	balance := h.Ledger.Credit(req.User, req.Token, amount)
	dto := toBalanceDTO(balance, token.Decimals)
	writeJSON(w, http.StatusOK, models.GetBalancesResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC(), Message: "balance credited"},
		Balances:     []models.BalanceDTO{dto},
	})
}

// checkAdminSignature trusts the literal string "admin", the exchange's
// documented stand-in for real admin authentication.
func checkAdminSignature(signature string) *models.HTTPError {
	if signature != "admin" {
		return models.ErrUnauthorizedRequest("admin_signature must be \"admin\"")
	}
	return nil
}

// marketOr404 looks up a market by id, translating UnknownMarket into the
// models error shape shared by every handler.
func (h *Handlers) marketOr404(marketID string) (types.Market, *models.HTTPError) {
	m, err := h.Registry.Market(marketID)
	if err != nil {
		if kernelerr.Is(err, kernelerr.UnknownMarket) {
			return types.Market{}, models.FromKernelError(err)
		}
		return types.Market{}, models.ErrInternal(err.Error())
	}
	return m, nil
}
