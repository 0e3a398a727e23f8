package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/pmbot/market"
	"github.com/tradekit/pmbot/order"
	"github.com/tradekit/pmbot/position"
	"github.com/tradekit/pmbot/profit"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "bot_state.json"), nil)
	require.NoError(t, err)
	return m
}

func seedTrackers(t *testing.T) (*position.Tracker, *order.Coordinator, *profit.Tracker) {
	t.Helper()

	positions := position.NewTracker(nil)
	positions.Add(&position.Position{
		PositionID: "pos_1",
		MarketID:   "mkt-1",
		Strategy:   "micro_spread",
		Side:       market.Buy,
		Size:       100,
		EntryPrice: 0.48,
		Timestamp:  time.Now(),
	})
	positions.Add(&position.Position{
		PositionID: "pos_2",
		MarketID:   "mkt-2",
		Strategy:   "single_arbitrage",
		Side:       market.Sell,
		Size:       50,
		EntryPrice: 0.62,
		Timestamp:  time.Now(),
	})

	coordinator := order.NewCoordinator(nil)
	_, err := coordinator.Create(order.Request{
		OrderID:  "ord_1",
		MarketID: "mkt-1",
		Outcome:  "YES",
		Side:     market.Buy,
		Size:     100,
		Price:    0.48,
		Strategy: "micro_spread",
	})
	require.NoError(t, err)
	_, err = coordinator.Create(order.Request{
		OrderID:  "ord_2",
		MarketID: "mkt-2",
		Outcome:  "NO",
		Side:     market.Sell,
		Size:     50,
		Price:    0.62,
		Strategy: "single_arbitrage",
	})
	require.NoError(t, err)
	_, err = coordinator.UpdateStatus("ord_2", market.OrderFilled, 50)
	require.NoError(t, err)

	profits := profit.NewTracker()
	profits.SetInitialCapital(10000)
	profits.Record(profit.TradeRecord{
		TradeID:  "t1",
		Strategy: "micro_spread",
		MarketID: "mkt-3",
		Side:     market.Buy,
		Size:     10,
		PnL:      25,
		ExitTime: time.Now(),
	})

	return positions, coordinator, profits
}

func TestSaveAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	positions, coordinator, profits := seedTrackers(t)

	require.NoError(t, m.Save(positions, coordinator, profits, map[string]interface{}{"iteration_count": 7}))

	snap, err := m.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Len(t, snap.Positions.OpenPositions, 2)
	assert.Len(t, snap.Orders.AllOrders, 2)
	assert.Equal(t, []string{"ord_1"}, snap.Orders.PendingOrderIDs)
	assert.InDelta(t, 10000, snap.Profitability.InitialCapital, 1e-9)
	assert.InDelta(t, 10025, snap.Profitability.CurrentCapital, 1e-9)
	assert.Equal(t, 1, snap.Profitability.TotalTrades)
	assert.EqualValues(t, 7, snap.Additional["iteration_count"])

	// Restore into fresh trackers and compare observable state.
	positions2 := position.NewTracker(nil)
	coordinator2 := order.NewCoordinator(nil)
	assert.Equal(t, 2, m.RestorePositions(snap, positions2))
	assert.Equal(t, 1, m.RestoreOrders(snap, coordinator2))

	assert.InDelta(t, positions.TotalExposure(""), positions2.TotalExposure(""), 1e-9)
	p := positions2.Get("pos_2")
	require.NotNil(t, p)
	assert.Equal(t, market.Sell, p.Side)

	stats := coordinator2.GetStats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)

	// The restored pending order must still block duplicates.
	_, err = coordinator2.Create(order.Request{
		OrderID:  "ord_3",
		MarketID: "mkt-1",
		Outcome:  "YES",
		Side:     market.Buy,
		Size:     100,
		Price:    0.48,
		Strategy: "micro_spread",
	})
	assert.ErrorIs(t, err, order.ErrDuplicateOrder)
}

func TestRestoreSkipsTerminalOrders(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	positions, coordinator, profits := seedTrackers(t)
	require.NoError(t, m.Save(positions, coordinator, profits, nil))

	snap, err := m.Load()
	require.NoError(t, err)

	coordinator2 := order.NewCoordinator(nil)
	m.RestoreOrders(snap, coordinator2)
	assert.Nil(t, coordinator2.Get("ord_2")) // filled, not restored
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	snap, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRestoreSkipsMalformedRecords(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	// Hand-build a snapshot with one good and two bad position records.
	good, err := json.Marshal(&position.Position{
		PositionID: "pos_ok",
		MarketID:   "mkt-1",
		Side:       market.Buy,
		Size:       10,
		EntryPrice: 0.5,
	})
	require.NoError(t, err)

	snap := &Snapshot{
		Positions: PositionsBlock{
			OpenPositions: []json.RawMessage{
				json.RawMessage(`{"position_id": 42}`), // wrong type
				json.RawMessage(`{"side":"buy"}`),      // missing id
				good,
			},
		},
		Orders: OrdersBlock{
			AllOrders: []json.RawMessage{
				json.RawMessage(`"not an object"`),
				json.RawMessage(`{"order_id":"ord_ok","market_id":"mkt-1","outcome":"YES","side":"buy","size":10,"price":0.5,"status":"pending"}`),
			},
		},
	}

	positions := position.NewTracker(nil)
	assert.Equal(t, 1, m.RestorePositions(snap, positions))
	assert.NotNil(t, positions.Get("pos_ok"))

	coordinator := order.NewCoordinator(nil)
	assert.Equal(t, 1, m.RestoreOrders(snap, coordinator))
	assert.NotNil(t, coordinator.Get("ord_ok"))
}

func TestSaveIsAtomic(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	positions, coordinator, profits := seedTrackers(t)

	require.NoError(t, m.Save(positions, coordinator, profits, nil))
	require.NoError(t, m.Save(positions, coordinator, profits, nil))

	// No temp file left behind, and the file parses whole.
	_, err := os.Stat(m.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	var snap Snapshot
	assert.NoError(t, json.Unmarshal(data, &snap))
}

func TestClear(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	positions, coordinator, profits := seedTrackers(t)
	require.NoError(t, m.Save(positions, coordinator, profits, nil))

	require.NoError(t, m.Clear())
	snap, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)

	// Clearing twice is fine.
	assert.NoError(t, m.Clear())
}
