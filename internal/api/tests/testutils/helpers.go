package testutils

import (
	"github.com/PxPatel/trading-system/internal/api/models"
)

// Request builders for common test cases. Every amount is a decimal string,
// matching the wire format the handlers parse against a market's or
// token's decimals.

func NewCreateTokenRequest(ticker string, decimals uint8) models.CreateTokenRequest {
	return models.CreateTokenRequest{
		Ticker:         ticker,
		Decimals:       decimals,
		Name:           ticker,
		AdminSignature: "admin",
	}
}

func NewCreateMarketRequest(base, quote, tickSize, lotSize, minSize string) models.CreateMarketRequest {
	return models.CreateMarketRequest{
		BaseTicker:     base,
		QuoteTicker:    quote,
		TickSize:       tickSize,
		LotSize:        lotSize,
		MinSize:        minSize,
		MakerFeeBps:    0,
		TakerFeeBps:    0,
		AdminSignature: "admin",
	}
}

func NewFaucetRequest(user, token, amount string) models.FaucetRequest {
	return models.FaucetRequest{
		User:           user,
		Token:          token,
		Amount:         amount,
		AdminSignature: "admin",
	}
}

// NewLimitBuyOrder creates a limit buy order request.
func NewLimitBuyOrder(user, price, size string) models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		User:      user,
		Side:      "buy",
		Kind:      "limit",
		Price:     price,
		Size:      size,
		Signature: "sig",
	}
}

// NewLimitSellOrder creates a limit sell order request.
func NewLimitSellOrder(user, price, size string) models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		User:      user,
		Side:      "sell",
		Kind:      "limit",
		Price:     price,
		Size:      size,
		Signature: "sig",
	}
}

// NewMarketBuyOrder creates a market buy order request, capped by fundingCap
// quote-token spend.
func NewMarketBuyOrder(user, fundingCap string) models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		User:       user,
		Side:       "buy",
		Kind:       "market",
		FundingCap: fundingCap,
		Signature:  "sig",
	}
}

// NewMarketSellOrder creates a market sell order request for size base units.
func NewMarketSellOrder(user, size string) models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		User:      user,
		Side:      "sell",
		Kind:      "market",
		Size:      size,
		Signature: "sig",
	}
}
