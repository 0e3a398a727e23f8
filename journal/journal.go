package journal

import (
	"time"

	"github.com/tradekit/pmbot/market"
)

// TradeEntry is one closed position written to the durable journal.
type TradeEntry struct {
	TradeID    string
	Strategy   string
	MarketID   string
	Outcome    string
	Side       market.Side
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64
	PnLPct     float64
	Reason     string
}

// EquityEntry is a periodic capital/exposure snapshot row.
type EquityEntry struct {
	Time          time.Time
	Capital       float64
	PeakCapital   float64
	TotalExposure float64
	DrawdownPct   float64
	OpenPositions int
}

// Journal is the durable record of what the bot did. Unlike the state
// snapshot it is append-only history, not recovery state.
type Journal interface {
	RecordTrade(TradeEntry) error
	RecordEquity(EquityEntry) error
	Close() error
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordTrade(TradeEntry) error   { return nil }
func (Nop) RecordEquity(EquityEntry) error { return nil }
func (Nop) Close() error                   { return nil }
