package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradekit/pmbot/market"
)

// Paper is an in-memory Exchange used for paper trading and tests. Orders
// rest until a quote crosses their limit price; SetQuote both updates the
// cache and sweeps resting orders for fills.
type Paper struct {
	mu     sync.Mutex
	cache  *QuoteCache
	orders map[string]*paperOrder
}

type paperOrder struct {
	req     OrderRequest
	status  string
	created time.Time
}

func NewPaper(cache *QuoteCache) *Paper {
	if cache == nil {
		cache = NewQuoteCache(0)
	}
	return &Paper{
		cache:  cache,
		orders: make(map[string]*paperOrder),
	}
}

// PlaceOrder accepts any well-formed order and assigns an exchange id.
func (p *Paper) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if !req.Side.Valid() {
		return OrderResult{}, fmt.Errorf("place order: invalid side %q", req.Side)
	}
	if req.Size <= 0 || req.Price <= 0 {
		return OrderResult{}, fmt.Errorf("place order: size and price must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	p.orders[id] = &paperOrder{
		req:     req,
		status:  "open",
		created: time.Now(),
	}
	return OrderResult{OrderID: id, Status: "open"}, nil
}

func (p *Paper) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("cancel order: unknown id %s", orderID)
	}
	if o.status == "open" {
		o.status = "cancelled"
	}
	return nil
}

// ListOrders returns open orders, optionally filtered to one market.
// Terminal orders are dropped from the listing the way a real CLOB drops
// them, which is what exercises the reconciler's stale-order path.
func (p *Paper) ListOrders(ctx context.Context, marketID string) ([]market.ExchangeOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []market.ExchangeOrder
	for id, o := range p.orders {
		if o.status != "open" {
			continue
		}
		if marketID != "" && o.req.MarketID != marketID {
			continue
		}
		out = append(out, market.ExchangeOrder{
			OrderID:  id,
			MarketID: o.req.MarketID,
			Outcome:  o.req.Outcome,
			Side:     string(o.req.Side),
			Size:     o.req.Size,
			Price:    o.req.Price,
			Status:   "open",
		})
	}
	return out, nil
}

func (p *Paper) BestQuote(ctx context.Context, marketID, outcome string) (market.Quote, error) {
	if q, ok := p.cache.Get(marketID, outcome); ok {
		return q, nil
	}
	return market.Quote{}, fmt.Errorf("no quote for %s/%s", marketID, outcome)
}

// SetQuote publishes a new best bid/ask and fills any resting order the
// quote crosses: buys fill when the ask touches the limit, sells when the
// bid does.
func (p *Paper) SetQuote(q market.Quote) {
	p.cache.Set(q)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, o := range p.orders {
		if o.status != "open" {
			continue
		}
		if o.req.MarketID != q.MarketID || o.req.Outcome != q.Outcome {
			continue
		}
		switch o.req.Side {
		case market.Buy:
			if q.Ask <= o.req.Price {
				o.status = "filled"
			}
		case market.Sell:
			if q.Bid >= o.req.Price {
				o.status = "filled"
			}
		}
	}
}

// OrderStatus reports a paper order's status, for tests and the status
// command.
func (p *Paper) OrderStatus(orderID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return "", false
	}
	return o.status, true
}
