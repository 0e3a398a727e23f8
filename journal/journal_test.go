package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/pmbot/market"
)

func tradeEntry(id, strategy string, pnl float64, close time.Time) TradeEntry {
	return TradeEntry{
		TradeID:    id,
		Strategy:   strategy,
		MarketID:   "mkt-1",
		Outcome:    "YES",
		Side:       market.Buy,
		Size:       100,
		EntryPrice: 0.45,
		ExitPrice:  0.45 + pnl/100,
		OpenTime:   close.Add(-time.Hour),
		CloseTime:  close,
		PnL:        pnl,
		PnLPct:     pnl / 45 * 100,
		Reason:     "stop_loss",
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, j.RecordTrade(tradeEntry("t1", "micro_spread", 5, now)))
	require.NoError(t, j.RecordTrade(tradeEntry("t2", "micro_spread", -3, now.Add(time.Minute))))
	require.NoError(t, j.RecordTrade(tradeEntry("t3", "single_arbitrage", 2, now)))

	trades, err := j.TradesByStrategy("micro_spread")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].TradeID)
	assert.Equal(t, "t2", trades[1].TradeID)
	assert.Equal(t, market.Buy, trades[0].Side)
	assert.InDelta(t, 5, trades[0].PnL, 1e-9)
	assert.Equal(t, "stop_loss", trades[0].Reason)

	trades, err = j.TradesByStrategy("unknown")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSQLiteDuplicateTradeID(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	now := time.Now()
	require.NoError(t, j.RecordTrade(tradeEntry("t1", "a", 1, now)))
	assert.Error(t, j.RecordTrade(tradeEntry("t1", "a", 2, now)))
}

func TestSQLiteEquity(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	assert.NoError(t, j.RecordEquity(EquityEntry{
		Time:          time.Now(),
		Capital:       10050,
		PeakCapital:   10100,
		TotalExposure: 450,
		DrawdownPct:   0.495,
		OpenPositions: 3,
	}))
}

func TestCSVJournalWritesRows(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, j.RecordTrade(tradeEntry("t1", "micro_spread", 5, now)))
	require.NoError(t, j.RecordEquity(EquityEntry{Time: now, Capital: 10005, OpenPositions: 1}))
	require.NoError(t, j.Close())

	tf, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer tf.Close()
	rows, err := csv.NewReader(tf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "t1", rows[1][0])
	assert.Equal(t, "buy", rows[1][4])

	ef, err := os.Open(equityPath)
	require.NoError(t, err)
	defer ef.Close()
	rows, err = csv.NewReader(ef).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "capital", rows[0][1])
}

func TestNopJournal(t *testing.T) {
	t.Parallel()
	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(TradeEntry{}))
	assert.NoError(t, j.RecordEquity(EquityEntry{}))
	assert.NoError(t, j.Close())
}
