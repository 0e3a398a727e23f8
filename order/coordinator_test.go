package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/pmbot/market"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	return NewCoordinator(nil)
}

func buyReq(id string) Request {
	return Request{
		OrderID:  id,
		MarketID: "mkt-1",
		Outcome:  "YES",
		Side:     market.Buy,
		Size:     40,
		Price:    0.52,
		Strategy: "micro_spread",
	}
}

func TestCreateTracksPending(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	o, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)
	assert.Equal(t, market.OrderPending, o.Status)
	assert.False(t, o.CreatedAt.IsZero())

	pending := c.Pending("", "")
	require.Len(t, pending, 1)
	assert.Equal(t, "ord-1", pending[0].OrderID)
}

func TestCreateRejectsDuplicate(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)

	// Same decision within tolerance, different id: duplicate.
	dup := buyReq("ord-2")
	dup.Price = 0.52 + DuplicateTolerance/2
	_, err = c.Create(dup)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	// Materially different price: a genuinely new decision.
	repriced := buyReq("ord-3")
	repriced.Price = 0.55
	_, err = c.Create(repriced)
	assert.NoError(t, err)

	// Opposite side is never a duplicate.
	sell := buyReq("ord-4")
	sell.Side = market.Sell
	_, err = c.Create(sell)
	assert.NoError(t, err)
}

func TestDuplicateClearsAfterTerminalStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status market.OrderStatus
	}{
		{"cancelled", market.OrderCancelled},
		{"filled", market.OrderFilled},
		{"failed", market.OrderFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCoordinator(t)

			_, err := c.Create(buyReq("ord-1"))
			require.NoError(t, err)

			_, err = c.UpdateStatus("ord-1", tt.status, -1)
			require.NoError(t, err)

			// The same decision is allowed again once nothing is pending.
			_, err = c.Create(buyReq("ord-2"))
			assert.NoError(t, err)
		})
	}
}

func TestUpdateStatusMovesCollections(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)

	o, err := c.UpdateStatus("ord-1", market.OrderPartiallyFilled, 15)
	require.NoError(t, err)
	assert.Equal(t, 15.0, o.FilledSize)
	assert.Len(t, c.Pending("", ""), 1, "partial fill stays pending")

	o, err = c.UpdateStatus("ord-1", market.OrderFilled, 40)
	require.NoError(t, err)
	assert.Equal(t, 40.0, o.FilledSize)
	assert.Empty(t, c.Pending("", ""))

	// Still in the full map for audit.
	assert.NotNil(t, c.Get("ord-1"))
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.UpdateStatus("nope", market.OrderFilled, -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)

	assert.True(t, c.Cancel("ord-1"))
	assert.Empty(t, c.Pending("", ""))
	assert.Equal(t, market.OrderCancelled, c.Get("ord-1").Status)

	assert.False(t, c.Cancel("nope"))
}

func TestPendingFilters(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	a := buyReq("ord-1")
	b := Request{
		OrderID:  "ord-2",
		MarketID: "mkt-2",
		Outcome:  "NO",
		Side:     market.Buy,
		Size:     10,
		Price:    0.30,
		Strategy: "single_arbitrage",
	}
	_, err := c.Create(a)
	require.NoError(t, err)
	_, err = c.Create(b)
	require.NoError(t, err)

	assert.Len(t, c.Pending("", ""), 2)
	assert.Len(t, c.Pending("mkt-1", ""), 1)
	assert.Len(t, c.Pending("", "single_arbitrage"), 1)
	assert.Empty(t, c.Pending("mkt-1", "single_arbitrage"))
}

func TestGetStats(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)

	sell := buyReq("ord-2")
	sell.Side = market.Sell
	_, err = c.Create(sell)
	require.NoError(t, err)

	other := buyReq("ord-3")
	other.MarketID = "mkt-2"
	_, err = c.Create(other)
	require.NoError(t, err)

	c.UpdateStatus("ord-1", market.OrderFilled, -1)
	c.Cancel("ord-2")

	stats := c.GetStats()
	assert.Equal(t, Stats{Total: 3, Pending: 1, Filled: 1, Cancelled: 1}, stats)
}

func TestRestoreSkipsDuplicateCheck(t *testing.T) {
	t.Parallel()
	c := newTestCoordinator(t)

	_, err := c.Create(buyReq("ord-1"))
	require.NoError(t, err)

	// Restoring an identical order must not trip the duplicate gate.
	o := &Order{
		OrderID:  "ord-2",
		MarketID: "mkt-1",
		Outcome:  "YES",
		Side:     market.Buy,
		Size:     40,
		Price:    0.52,
		Status:   market.OrderPending,
	}
	c.Restore(o)

	assert.Len(t, c.Pending("", ""), 2)

	// PartiallyFilled restores into the map but not the pending set.
	p := &Order{
		OrderID:  "ord-3",
		MarketID: "mkt-1",
		Outcome:  "YES",
		Side:     market.Sell,
		Size:     40,
		Price:    0.52,
		Status:   market.OrderPartiallyFilled,
	}
	c.Restore(p)
	assert.NotNil(t, c.Get("ord-3"))
	assert.Len(t, c.Pending("", ""), 2)
}
