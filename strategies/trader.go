package strategies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradekit/pmbot/exchange"
	"github.com/tradekit/pmbot/internal/id"
	"github.com/tradekit/pmbot/market"
	"github.com/tradekit/pmbot/order"
	"github.com/tradekit/pmbot/position"
	"github.com/tradekit/pmbot/risk"
)

// Trader is the shared execution path every strategy uses: risk gate, order
// placement, coordinator registration, position tracking. Strategies never
// talk to the exchange or the trackers directly.
type Trader struct {
	Exchange exchange.Exchange
	Orders   *order.Coordinator
	Risk     *risk.Manager
	Quotes   *exchange.QuoteCache
	Log      *slog.Logger
}

// Quote reads the cached best bid/ask, falling back to the exchange when the
// cache has no fresh entry.
func (t *Trader) Quote(ctx context.Context, marketID, outcome string) (market.Quote, error) {
	if q, ok := t.Quotes.Get(marketID, outcome); ok {
		return q, nil
	}
	return t.Exchange.BestQuote(ctx, marketID, outcome)
}

// Place runs one opportunity end to end. A risk rejection or duplicate
// detection returns (nil, nil): the opportunity is skipped this cycle, not
// an error. The returned position carries the exchange order id in its
// metadata.
func (t *Trader) Place(ctx context.Context, strategy string, opp Opportunity) (*position.Position, *order.Order, error) {
	if allowed, reason := t.Risk.CheckTradeAllowed(strategy, opp.MarketID, opp.Size, opp.Price, opp.Side); !allowed {
		t.Log.Debug("trade rejected by risk", "strategy", strategy,
			"market", opp.MarketID, "reason", reason)
		return nil, nil, nil
	}

	res, err := t.Exchange.PlaceOrder(ctx, exchange.OrderRequest{
		MarketID: opp.MarketID,
		Outcome:  opp.Outcome,
		Side:     opp.Side,
		Size:     opp.Size,
		Price:    opp.Price,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("place order: %w", err)
	}

	meta := map[string]interface{}{}
	for k, v := range opp.Detail {
		meta[k] = v
	}

	o, err := t.Orders.Create(order.Request{
		OrderID:  res.OrderID,
		MarketID: opp.MarketID,
		Outcome:  opp.Outcome,
		Side:     opp.Side,
		Size:     opp.Size,
		Price:    opp.Price,
		Strategy: strategy,
		Metadata: meta,
	})
	if err != nil {
		if errors.Is(err, order.ErrDuplicateOrder) {
			// The decision was already in flight; withdraw the duplicate
			// submission and move on.
			t.Log.Debug("duplicate order suppressed", "strategy", strategy,
				"market", opp.MarketID)
			if cancelErr := t.Exchange.CancelOrder(ctx, res.OrderID); cancelErr != nil {
				t.Log.Warn("failed to cancel duplicate order",
					"order_id", res.OrderID, "err", cancelErr)
			}
			return nil, nil, nil
		}
		return nil, nil, err
	}

	p := &position.Position{
		PositionID: id.WithPrefix("pos_"),
		MarketID:   opp.MarketID,
		Strategy:   strategy,
		Side:       opp.Side,
		Size:       opp.Size,
		EntryPrice: opp.Price,
		Timestamp:  time.Now(),
		Status:     market.PositionOpen,
		Metadata: map[string]interface{}{
			"order_id": o.OrderID,
			"outcome":  opp.Outcome,
		},
	}
	t.Risk.AddPosition(p)

	return p, o, nil
}
