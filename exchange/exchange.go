package exchange

import (
	"context"

	"github.com/tradekit/pmbot/market"
)

// Exchange is the contract the core requires from an exchange client. Both
// the live CLOB client and the paper engine satisfy it; the core never
// branches on which flavor it is talking to.
type Exchange interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	ListOrders(ctx context.Context, marketID string) ([]market.ExchangeOrder, error)
	BestQuote(ctx context.Context, marketID, outcome string) (market.Quote, error)
}

// OrderRequest is a limit order submission.
type OrderRequest struct {
	MarketID string
	Outcome  string
	Side     market.Side
	Size     float64
	Price    float64
}

// OrderResult is the exchange's acknowledgment.
type OrderResult struct {
	OrderID string
	Status  string
}
