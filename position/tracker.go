package position

import (
	"log/slog"
	"sync"

	"github.com/tradekit/pmbot/market"
)

// Tracker is the ledger of truth for all positions. Open positions live in a
// map keyed by id; closed positions move to an append-only list.
type Tracker struct {
	mu     sync.RWMutex
	open   map[string]*Position
	closed []*Position
	log    *slog.Logger
}

func NewTracker(log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		open: make(map[string]*Position),
		log:  log,
	}
}

// Add inserts a position into the open map. Uniqueness of the id is the
// caller's responsibility; a colliding id replaces the previous entry.
func (t *Tracker) Add(p *Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p.Status == "" {
		p.Status = market.PositionOpen
	}
	if p.Metadata == nil {
		p.Metadata = map[string]interface{}{}
	}
	t.open[p.PositionID] = p
	t.log.Debug("added position", "position_id", p.PositionID, "strategy", p.Strategy)
}

// Update applies fn to an open position under the lock. No-op with a warning
// if the id is unknown.
func (t *Tracker) Update(positionID string, fn func(*Position)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[positionID]
	if !ok {
		t.log.Warn("position not found", "position_id", positionID)
		return
	}
	fn(p)
}

// SetCurrentPrice records the latest observed price for an open position.
func (t *Tracker) SetCurrentPrice(positionID string, price float64) {
	t.Update(positionID, func(p *Position) { p.CurrentPrice = price })
}

// Close realizes a position at exitPrice, computes P&L, and moves it to the
// closed list. Returns nil if the id is not open; a second call for the same
// id therefore returns nil.
func (t *Tracker) Close(positionID string, exitPrice float64) *Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.open[positionID]
	if !ok {
		t.log.Warn("position not found for closing", "position_id", positionID)
		return nil
	}

	p.CurrentPrice = exitPrice
	p.Status = market.PositionClosed

	if p.Side == market.Buy {
		p.PnL = (exitPrice - p.EntryPrice) * p.Size
	} else {
		p.PnL = (p.EntryPrice - exitPrice) * p.Size
	}
	if notional := p.EntryPrice * p.Size; notional != 0 {
		p.PnLPct = p.PnL / notional * 100
	}

	t.closed = append(t.closed, p)
	delete(t.open, positionID)

	t.log.Info("closed position",
		"position_id", positionID, "pnl", p.PnL, "pnl_pct", p.PnLPct)
	return p
}

// Get returns the open position for id, or nil.
func (t *Tracker) Get(positionID string) *Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open[positionID]
}

// ByStrategy returns open positions created by one strategy.
func (t *Tracker) ByStrategy(strategy string) []*Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*Position
	for _, p := range t.open {
		if p.Strategy == strategy {
			out = append(out, p)
		}
	}
	return out
}

// ByMarket returns open positions in one market.
func (t *Tracker) ByMarket(marketID string) []*Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*Position
	for _, p := range t.open {
		if p.MarketID == marketID {
			out = append(out, p)
		}
	}
	return out
}

// Open returns a snapshot slice of all open positions.
func (t *Tracker) Open() []*Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Position, 0, len(t.open))
	for _, p := range t.open {
		out = append(out, p)
	}
	return out
}

// TotalExposure sums entry_price*size over open positions, optionally
// filtered to one strategy (empty string means all).
func (t *Tracker) TotalExposure(strategy string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total float64
	for _, p := range t.open {
		if strategy != "" && p.Strategy != strategy {
			continue
		}
		total += p.Exposure()
	}
	return total
}

// MarketExposure sums open exposure in one market.
func (t *Tracker) MarketExposure(marketID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total float64
	for _, p := range t.open {
		if p.MarketID == marketID {
			total += p.Exposure()
		}
	}
	return total
}

// TotalPnL sums realized P&L over closed positions. Open positions
// contribute nothing until they close.
func (t *Tracker) TotalPnL() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total float64
	for _, p := range t.closed {
		total += p.PnL
	}
	return total
}

// OpenCount returns the number of open positions.
func (t *Tracker) OpenCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open)
}

// ClosedCount returns the number of closed positions.
func (t *Tracker) ClosedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.closed)
}
