package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/trading-system/internal/api/models"
)

const (
	defaultTradeLimit = 100
	maxTradeLimit     = 1000
)

// GetTradesHandler returns recent trades for a market, optionally scoped
// to one user.
func (h *Handlers) GetTradesHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	limit := defaultTradeLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxTradeLimit {
				limit = maxTradeLimit
			}
		}
	}
	user := r.URL.Query().Get("user")

	trades, err := h.tradeStore.GetRecent(marketID, user, limit)
	if err != nil {
		writeErrorResponse(w, models.ErrInternal(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, models.GetTradesResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Trades:       h.buildTrades(trades, market),
		Count:        len(trades),
	})
}
