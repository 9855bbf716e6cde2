package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/trading-system/internal/api/logger"
	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/matching"
	"github.com/PxPatel/trading-system/internal/types"
)

func (h *Handlers) buildTrades(trades []*types.Trade, market types.Market) []models.TradeDTO {
	dtos := make([]models.TradeDTO, len(trades))
	for i, t := range trades {
		dtos[i] = toTradeDTO(t, market)
	}
	return dtos
}

// PlaceOrderHandler submits a new order to a market.
func (h *Handlers) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	var req models.PlaceOrderRequest
	if httpErr := decodeJSON(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	side := types.Side(strings.ToLower(req.Side))
	kind := types.OrderKind(strings.ToLower(req.Kind))

	input := matching.PlaceOrderInput{
		User:      req.User,
		Side:      side,
		Kind:      kind,
		Signature: req.Signature,
	}

	if req.Price != "" {
		price, httpErr := parseAmount("price", req.Price, market.QuoteDecimals)
		if httpErr != nil {
			writeErrorResponse(w, httpErr)
			return
		}
		input.Price = price
	}
	if req.Size != "" {
		size, httpErr := parseAmount("size", req.Size, market.BaseDecimals)
		if httpErr != nil {
			writeErrorResponse(w, httpErr)
			return
		}
		input.Size = size
	}
	if req.FundingCap != "" {
		fundingCap, httpErr := parseAmount("funding_cap", req.FundingCap, market.QuoteDecimals)
		if httpErr != nil {
			writeErrorResponse(w, httpErr)
			return
		}
		input.FundingCap = &fundingCap
	}

	order, trades, err := h.Router.PlaceOrder(r.Context(), marketID, input)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	logger.Info("order placed", map[string]interface{}{
		"market_id": marketID,
		"order_id":  order.ID,
		"user":      order.User,
		"side":      order.Side,
		"kind":      order.Kind,
		"trades":    len(trades),
	})

	dto := toOrderDTO(order, market)
	writeJSON(w, http.StatusOK, models.PlaceOrderResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Order:        &dto,
		Trades:       h.buildTrades(trades, market),
	})
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	idStr := mux.Vars(r)["orderId"]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeErrorResponse(w, models.ErrBadRequest("invalid order id", map[string]interface{}{"provided_value": idStr}))
		return 0, false
	}
	return id, true
}

// CancelOrderHandler cancels a single resting order.
func (h *Handlers) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	user := r.URL.Query().Get("user")
	if strings.TrimSpace(user) == "" {
		writeErrorResponse(w, models.ErrBadRequest("user query parameter is required", nil))
		return
	}

	order, err := h.Router.CancelOrder(r.Context(), marketID, user, orderID)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	dto := toOrderDTO(order, market)
	writeJSON(w, http.StatusOK, models.CancelOrderResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC(), Message: "order cancelled"},
		Order:        &dto,
	})
}

// CancelAllHandler cancels every open order for a user, optionally scoped
// to one market.
func (h *Handlers) CancelAllHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"] // empty when called via the fan-out route
	user := r.URL.Query().Get("user")
	if strings.TrimSpace(user) == "" {
		writeErrorResponse(w, models.ErrBadRequest("user query parameter is required", nil))
		return
	}

	count, err := h.Router.CancelAll(r.Context(), marketID, user)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.CancelAllResponse{
		BaseResponse:   models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		CancelledCount: count,
	})
}

// GetOrderHandler fetches a single order by id.
func (h *Handlers) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.Router.GetOrder(marketID, orderID)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	dto := toOrderDTO(order, market)
	writeJSON(w, http.StatusOK, models.GetOrderResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Order:        &dto,
	})
}

// GetOpenOrdersHandler lists a user's open orders in a market.
func (h *Handlers) GetOpenOrdersHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	user := r.URL.Query().Get("user")
	if strings.TrimSpace(user) == "" {
		writeErrorResponse(w, models.ErrBadRequest("user query parameter is required", nil))
		return
	}

	orders := h.Router.OpenOrdersForUser(marketID, user)
	dtos := make([]models.OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, market)
	}

	writeJSON(w, http.StatusOK, models.GetOrdersResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Orders:       dtos,
		Count:        len(dtos),
	})
}
