package profit

import (
	"sort"
	"sync"
	"time"

	"github.com/tradekit/pmbot/market"
)

// TradeRecord is one completed round trip, recorded at close time.
type TradeRecord struct {
	TradeID    string
	Strategy   string
	MarketID   string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Side       market.Side
	PnL        float64
	PnLPct     float64
	Fees       float64
}

// StrategyStats aggregates per-strategy performance.
type StrategyStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	TotalPnL      float64
	TotalPnLPct   float64
	WinRate       float64
	AvgWin        float64
	AvgLoss       float64
	LargestWin    float64
	LargestLoss   float64
}

// OverallStats is the whole-bot performance summary; the snapshot's
// profitability block is derived from it.
type OverallStats struct {
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64
	TotalPnL       float64
	TotalPnLPct    float64
	ROI            float64
	InitialCapital float64
	CurrentCapital float64
	AvgWin         float64
	AvgLoss        float64
	LargestWin     float64
	LargestLoss    float64
	ProfitFactor   float64
}

// Tracker records closed trades and derives analytics. It is not
// safety-critical: nothing in the risk path depends on it.
type Tracker struct {
	mu             sync.Mutex
	trades         []TradeRecord
	initialCapital float64
	currentCapital float64
	byStrategy     map[string]*StrategyStats
}

func NewTracker() *Tracker {
	return &Tracker{byStrategy: make(map[string]*StrategyStats)}
}

// SetInitialCapital seeds both the initial and current capital figures.
func (t *Tracker) SetInitialCapital(capital float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initialCapital = capital
	t.currentCapital = capital
}

// Record adds a completed trade and updates running per-strategy stats.
func (t *Tracker) Record(trade TradeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trades = append(t.trades, trade)
	t.currentCapital += trade.PnL

	s, ok := t.byStrategy[trade.Strategy]
	if !ok {
		s = &StrategyStats{}
		t.byStrategy[trade.Strategy] = s
	}

	s.TotalTrades++
	s.TotalPnL += trade.PnL

	if trade.PnL > 0 {
		s.WinningTrades++
		if trade.PnL > s.LargestWin {
			s.LargestWin = trade.PnL
		}
		s.AvgWin += (trade.PnL - s.AvgWin) / float64(s.WinningTrades)
	} else {
		s.LosingTrades++
		if trade.PnL < s.LargestLoss {
			s.LargestLoss = trade.PnL
		}
		s.AvgLoss += (trade.PnL - s.AvgLoss) / float64(s.LosingTrades)
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	if t.initialCapital > 0 {
		s.TotalPnLPct = s.TotalPnL / t.initialCapital * 100
	}
}

// Overall computes whole-bot statistics over every recorded trade.
func (t *Tracker) Overall() OverallStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := OverallStats{
		TotalTrades:    len(t.trades),
		InitialCapital: t.initialCapital,
		CurrentCapital: t.currentCapital,
	}

	var winSum, lossSum float64
	for _, tr := range t.trades {
		stats.TotalPnL += tr.PnL
		if tr.PnL > 0 {
			stats.WinningTrades++
			winSum += tr.PnL
			if tr.PnL > stats.LargestWin {
				stats.LargestWin = tr.PnL
			}
		} else if tr.PnL < 0 {
			stats.LosingTrades++
			lossSum += tr.PnL
			if tr.PnL < stats.LargestLoss {
				stats.LargestLoss = tr.PnL
			}
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	if t.initialCapital > 0 {
		stats.TotalPnLPct = stats.TotalPnL / t.initialCapital * 100
		stats.ROI = (t.currentCapital - t.initialCapital) / t.initialCapital * 100
	}
	if stats.WinningTrades > 0 {
		stats.AvgWin = winSum / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = lossSum / float64(stats.LosingTrades)
	}
	if lossSum != 0 {
		stats.ProfitFactor = winSum / -lossSum
	}

	return stats
}

// Strategy returns a copy of one strategy's stats; zero value if unknown.
func (t *Tracker) Strategy(name string) StrategyStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.byStrategy[name]; ok {
		return *s
	}
	return StrategyStats{}
}

// Recent returns up to limit trades, most recent exit first.
func (t *Tracker) Recent(limit int) []TradeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TradeRecord, len(t.trades))
	copy(out, t.trades)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExitTime.After(out[j].ExitTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Capital returns (initial, current) capital.
func (t *Tracker) Capital() (initial, current float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialCapital, t.currentCapital
}
