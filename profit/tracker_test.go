package profit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/pmbot/market"
)

func record(strategy string, pnl float64, exit time.Time) TradeRecord {
	return TradeRecord{
		TradeID:  fmt.Sprintf("t-%s-%.0f", strategy, pnl),
		Strategy: strategy,
		MarketID: "mkt-1",
		Side:     market.Buy,
		Size:     10,
		PnL:      pnl,
		ExitTime: exit,
	}
}

func TestOverallStats(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.SetInitialCapital(10000)

	now := time.Now()
	tr.Record(record("a", 100, now))
	tr.Record(record("a", -40, now.Add(time.Minute)))
	tr.Record(record("b", 60, now.Add(2*time.Minute)))
	tr.Record(record("b", -20, now.Add(3*time.Minute)))

	stats := tr.Overall()
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.InDelta(t, 50, stats.WinRate, 1e-9)
	assert.InDelta(t, 100, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 1, stats.ROI, 1e-9) // 100 on 10000
	assert.InDelta(t, 10100, stats.CurrentCapital, 1e-9)
	assert.InDelta(t, 80, stats.AvgWin, 1e-9)
	assert.InDelta(t, -30, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 100, stats.LargestWin, 1e-9)
	assert.InDelta(t, -40, stats.LargestLoss, 1e-9)
	assert.InDelta(t, 160.0/60.0, stats.ProfitFactor, 1e-9)
}

func TestOverallEmpty(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	stats := tr.Overall()
	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.ROI)
	assert.Zero(t, stats.ProfitFactor)
}

func TestStrategyStats(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.SetInitialCapital(1000)

	now := time.Now()
	tr.Record(record("a", 30, now))
	tr.Record(record("a", 10, now))
	tr.Record(record("a", -20, now))
	tr.Record(record("b", 5, now))

	s := tr.Strategy("a")
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 20, s.TotalPnL, 1e-9)
	assert.InDelta(t, 2, s.TotalPnLPct, 1e-9) // 20 on 1000
	assert.InDelta(t, 20, s.AvgWin, 1e-9)
	assert.InDelta(t, -20, s.AvgLoss, 1e-9)
	assert.InDelta(t, 100.0*2/3, s.WinRate, 1e-9)

	assert.Zero(t, tr.Strategy("unknown").TotalTrades)
}

func TestRecentOrdersByExitTime(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	now := time.Now()
	tr.Record(record("a", 1, now.Add(2*time.Minute)))
	tr.Record(record("a", 2, now))
	tr.Record(record("a", 3, now.Add(time.Minute)))

	recent := tr.Recent(2)
	require.Len(t, recent, 2)
	assert.InDelta(t, 1, recent[0].PnL, 1e-9)
	assert.InDelta(t, 3, recent[1].PnL, 1e-9)
}

func TestCapitalTracksPnL(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.SetInitialCapital(500)
	tr.Record(record("a", -50, time.Now()))

	initial, current := tr.Capital()
	assert.InDelta(t, 500, initial, 1e-9)
	assert.InDelta(t, 450, current, 1e-9)
}
