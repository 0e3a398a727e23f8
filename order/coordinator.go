package order

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tradekit/pmbot/market"
)

// DuplicateTolerance is the absolute price/size window within which a pending
// order for the same (market, outcome, side) key blocks a new submission.
// Wide enough to catch a retried decision, narrow enough to let a genuinely
// repriced one through.
const DuplicateTolerance = 0.0001

var (
	// ErrDuplicateOrder is returned when a matching order is still pending.
	ErrDuplicateOrder = errors.New("duplicate order")
	// ErrNotFound is returned for operations on unknown order ids.
	ErrNotFound = errors.New("order not found")
)

// Coordinator is the single source of truth for every order created
// in-process. The mutex is held across the duplicate-check-then-insert
// sequence so two concurrent strategies can never register the same
// (market, outcome, side) decision twice.
type Coordinator struct {
	mu      sync.Mutex
	orders  map[string]*Order
	pending map[string]struct{}
	filled  []*Order
	log     *slog.Logger
}

func NewCoordinator(log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		orders:  make(map[string]*Order),
		pending: make(map[string]struct{}),
		log:     log,
	}
}

// Create registers a new order with status Pending. It fails with
// ErrDuplicateOrder if a pending order for the same key exists within
// DuplicateTolerance of both price and size.
func (c *Coordinator) Create(req Request) (*Order, error) {
	if !req.Side.Valid() {
		return nil, fmt.Errorf("create order %s: invalid side %q", req.OrderID, req.Side)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isDuplicateLocked(req.MarketID, req.Outcome, req.Side, req.Price, req.Size) {
		return nil, fmt.Errorf("%w: %s %s %s @ %g", ErrDuplicateOrder,
			req.MarketID, req.Outcome, req.Side, req.Price)
	}

	now := time.Now()
	meta := req.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	o := &Order{
		OrderID:   req.OrderID,
		MarketID:  req.MarketID,
		Outcome:   req.Outcome,
		Side:      req.Side,
		Size:      req.Size,
		Price:     req.Price,
		Status:    market.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
		Strategy:  req.Strategy,
		Metadata:  meta,
	}

	c.orders[o.OrderID] = o
	c.pending[o.OrderID] = struct{}{}

	c.log.Debug("created order",
		"order_id", o.OrderID, "side", o.Side, "size", o.Size,
		"price", o.Price, "market", o.MarketID)

	return o, nil
}

func (c *Coordinator) isDuplicateLocked(marketID, outcome string, side market.Side, price, size float64) bool {
	for id := range c.pending {
		o, ok := c.orders[id]
		if !ok {
			continue
		}
		if o.MarketID == marketID &&
			o.Outcome == outcome &&
			o.Side == side &&
			abs(o.Price-price) < DuplicateTolerance &&
			abs(o.Size-size) < DuplicateTolerance {
			return true
		}
	}
	return false
}

// UpdateStatus transitions an order and stamps UpdatedAt. filledSize < 0
// means "leave unchanged". On Filled the order moves to the filled list; any
// terminal status removes it from the pending set. The order stays in the
// full map for audit.
func (c *Coordinator) UpdateStatus(orderID string, status market.OrderStatus, filledSize float64) (*Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateStatusLocked(orderID, status, filledSize)
}

func (c *Coordinator) updateStatusLocked(orderID string, status market.OrderStatus, filledSize float64) (*Order, error) {
	o, ok := c.orders[orderID]
	if !ok {
		c.log.Warn("order not found", "order_id", orderID)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}

	o.Status = status
	o.UpdatedAt = time.Now()
	if filledSize >= 0 {
		o.FilledSize = filledSize
	}

	switch status {
	case market.OrderFilled:
		delete(c.pending, orderID)
		if !c.inFilledLocked(orderID) {
			c.filled = append(c.filled, o)
		}
	case market.OrderCancelled, market.OrderFailed:
		delete(c.pending, orderID)
	}

	c.log.Debug("updated order", "order_id", orderID, "status", status)
	return o, nil
}

func (c *Coordinator) inFilledLocked(orderID string) bool {
	for _, o := range c.filled {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}

// Cancel marks an order cancelled. Returns false if the id is unknown.
func (c *Coordinator) Cancel(orderID string) bool {
	_, err := c.UpdateStatus(orderID, market.OrderCancelled, -1)
	return err == nil
}

// Get returns the order for id, or nil if unknown.
func (c *Coordinator) Get(orderID string) *Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders[orderID]
}

// Pending returns pending orders, optionally filtered by market and/or
// strategy. Empty filter strings match everything.
func (c *Coordinator) Pending(marketID, strategy string) []*Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*Order
	for id := range c.pending {
		o, ok := c.orders[id]
		if !ok {
			continue
		}
		if marketID != "" && o.MarketID != marketID {
			continue
		}
		if strategy != "" && o.Strategy != strategy {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ByMarket returns every order ever created for a market, any status.
func (c *Coordinator) ByMarket(marketID string) []*Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*Order
	for _, o := range c.orders {
		if o.MarketID == marketID {
			out = append(out, o)
		}
	}
	return out
}

// All returns a snapshot slice of every tracked order.
func (c *Coordinator) All() []*Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Order, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, o)
	}
	return out
}

// PendingIDs returns the current pending-id set as a slice.
func (c *Coordinator) PendingIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.pending))
	for id := range c.pending {
		out = append(out, id)
	}
	return out
}

// Restore re-inserts an order without duplicate checking, used when loading
// a snapshot. Only Pending orders re-enter the pending set.
func (c *Coordinator) Restore(o *Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders[o.OrderID] = o
	if o.Status == market.OrderPending {
		c.pending[o.OrderID] = struct{}{}
	}
}

// GetStats returns order counts. Cancelled/failed is derived: everything not
// pending and not filled.
func (c *Coordinator) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.orders)
	pending := len(c.pending)
	filled := len(c.filled)
	return Stats{
		Total:     total,
		Pending:   pending,
		Filled:    filled,
		Cancelled: total - pending - filled,
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
