package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/trading-system/internal/api/models"
)

// GetBalancesHandler returns a user's ledger balances across all tokens.
func (h *Handlers) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	if strings.TrimSpace(user) == "" {
		writeErrorResponse(w, models.ErrBadRequest("user is required", nil))
		return
	}

	balances := h.Ledger.AllForUser(user)
	dtos := make([]models.BalanceDTO, len(balances))
	for i, b := range balances {
		token, err := h.Registry.Token(b.Token)
		decimals := uint8(0)
		if err == nil {
			decimals = token.Decimals
		}
		dtos[i] = toBalanceDTO(b, decimals)
	}

	writeJSON(w, http.StatusOK, models.GetBalancesResponse{
		BaseResponse: models.BaseResponse{Success: true, Timestamp: time.Now().UTC()},
		Balances:     dtos,
	})
}
