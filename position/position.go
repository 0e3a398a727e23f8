package position

import (
	"time"

	"github.com/tradekit/pmbot/market"
)

// Position is an open or closed market exposure. P&L fields are only
// meaningful after the position closes; a closed position is immutable.
type Position struct {
	PositionID   string                 `json:"position_id"`
	MarketID     string                 `json:"market_id"`
	Strategy     string                 `json:"strategy"`
	Side         market.Side            `json:"side"`
	Size         float64                `json:"size"`
	EntryPrice   float64                `json:"entry_price"`
	CurrentPrice float64                `json:"current_price"`
	Timestamp    time.Time              `json:"timestamp"`
	Status       market.PositionStatus  `json:"status"`
	PnL          float64                `json:"pnl"`
	PnLPct       float64                `json:"pnl_pct"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// Exposure is the notional value at risk: entry price times size.
func (p *Position) Exposure() float64 { return p.EntryPrice * p.Size }

// LivePnLPct returns the unrealized P&L percentage at price, signed by side.
func (p *Position) LivePnLPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Side == market.Sell {
		return (p.EntryPrice - price) / p.EntryPrice * 100
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}
