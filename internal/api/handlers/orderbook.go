package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/trading-system/internal/api/models"
	"github.com/PxPatel/trading-system/internal/types"
)

const (
	defaultDepth = 10
	maxDepth     = 100
)

// GetOrderBookHandler returns an aggregated depth snapshot for a market.
func (h *Handlers) GetOrderBookHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	depth := defaultDepth
	if depthStr := r.URL.Query().Get("depth"); depthStr != "" {
		if parsed, err := strconv.Atoi(depthStr); err == nil && parsed > 0 {
			depth = parsed
			if depth > maxDepth {
				depth = maxDepth
			}
		}
	}

	book, err := h.Router.OrderBook(marketID)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}
	bidLevels, askLevels := book.DepthSnapshot(depth)

	bids := make([]models.PriceLevel, len(bidLevels))
	for i, l := range bidLevels {
		bids[i] = models.PriceLevel{
			Price:      l.Price.ToDecimalString(market.QuoteDecimals),
			Size:       l.Size.ToDecimalString(market.BaseDecimals),
			OrderCount: l.OrderCount,
		}
	}
	asks := make([]models.PriceLevel, len(askLevels))
	for i, l := range askLevels {
		asks[i] = models.PriceLevel{
			Price:      l.Price.ToDecimalString(market.QuoteDecimals),
			Size:       l.Size.ToDecimalString(market.BaseDecimals),
			OrderCount: l.OrderCount,
		}
	}

	writeJSON(w, http.StatusOK, models.OrderBookResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		MarketID:     marketID,
		Bids:         bids,
		Asks:         asks,
	})
}

// GetTopOfBookHandler returns the best bid and ask for a market.
func (h *Handlers) GetTopOfBookHandler(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	market, httpErr := h.marketOr404(marketID)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	book, err := h.Router.OrderBook(marketID)
	if err != nil {
		writeErrorResponse(w, models.FromKernelError(err))
		return
	}

	resp := models.TopOfBookResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		MarketID:     marketID,
	}
	if bid := book.Best(types.Buy); bid != nil {
		resp.BestBid = &models.BestQuote{
			Price: bid.Price.ToDecimalString(market.QuoteDecimals),
			Size:  bid.Remaining().ToDecimalString(market.BaseDecimals),
		}
	}
	if ask := book.Best(types.Sell); ask != nil {
		resp.BestAsk = &models.BestQuote{
			Price: ask.Price.ToDecimalString(market.QuoteDecimals),
			Size:  ask.Remaining().ToDecimalString(market.BaseDecimals),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
