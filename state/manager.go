package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tradekit/pmbot/market"
	"github.com/tradekit/pmbot/order"
	"github.com/tradekit/pmbot/position"
	"github.com/tradekit/pmbot/profit"
)

// Manager persists and restores the combined tracker state so a process
// restart does not lose open exposure or pending-order awareness. Writes are
// atomic (temp file + rename): the on-disk file is always either the
// previous complete snapshot or the new one, never a partial write.
//
// Persistence is best effort, not a transaction log. Failures are returned
// for the caller to log; the bot keeps trading without durable state.
type Manager struct {
	path string
	log  *slog.Logger
}

// NewManager creates the state directory if needed. Failing to create it is
// the one fatal startup condition in this layer.
func NewManager(path string, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	return &Manager{path: path, log: log}, nil
}

// Path returns the snapshot file location.
func (m *Manager) Path() string { return m.path }

// Save serializes a consistent snapshot of both trackers plus the
// profitability summary and atomically replaces the snapshot file.
func (m *Manager) Save(positions *position.Tracker, orders *order.Coordinator, profits *profit.Tracker, additional map[string]interface{}) error {
	snap := Snapshot{
		Timestamp:  time.Now().Format(time.RFC3339),
		Additional: additional,
	}
	if snap.Additional == nil {
		snap.Additional = map[string]interface{}{}
	}

	for _, p := range positions.Open() {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal position %s: %w", p.PositionID, err)
		}
		snap.Positions.OpenPositions = append(snap.Positions.OpenPositions, raw)
	}
	snap.Positions.ClosedPositionsCount = positions.ClosedCount()

	for _, o := range orders.All() {
		raw, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal order %s: %w", o.OrderID, err)
		}
		snap.Orders.AllOrders = append(snap.Orders.AllOrders, raw)
	}
	snap.Orders.PendingOrderIDs = orders.PendingIDs()
	if snap.Orders.PendingOrderIDs == nil {
		snap.Orders.PendingOrderIDs = []string{}
	}

	if profits != nil {
		stats := profits.Overall()
		snap.Profitability = ProfitabilityBlock{
			InitialCapital: stats.InitialCapital,
			CurrentCapital: stats.CurrentCapital,
			TotalTrades:    stats.TotalTrades,
			TotalPnL:       stats.TotalPnL,
			ROI:            stats.ROI,
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	m.log.Info("state saved", "path", m.path)
	return nil
}

// Load reads the snapshot file. A missing file is not an error: it returns
// (nil, nil) so first boot looks like an empty state. Unparsable content is
// reported but never panics.
func (m *Manager) Load() (*Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.log.Debug("state file not found", "path", m.path)
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	m.log.Info("state loaded", "path", m.path)
	return &snap, nil
}

// RestorePositions re-inserts each serialized open position via Add.
// Malformed entries are skipped and logged; the count reflects successes.
func (m *Manager) RestorePositions(snap *Snapshot, tracker *position.Tracker) int {
	if snap == nil {
		return 0
	}

	restored := 0
	for _, raw := range snap.Positions.OpenPositions {
		var p position.Position
		if err := json.Unmarshal(raw, &p); err != nil {
			m.log.Warn("skipping malformed position record", "err", err)
			continue
		}
		if p.PositionID == "" || !p.Side.Valid() {
			m.log.Warn("skipping invalid position record", "position_id", p.PositionID)
			continue
		}
		tracker.Add(&p)
		restored++
	}

	if restored > 0 {
		m.log.Info("restored positions", "count", restored)
	}
	return restored
}

// RestoreOrders restores only orders whose status is Pending or
// PartiallyFilled; terminal orders are historical and not re-tracked. Only
// Pending orders re-enter the pending-id set.
func (m *Manager) RestoreOrders(snap *Snapshot, coordinator *order.Coordinator) int {
	if snap == nil {
		return 0
	}

	restored := 0
	for _, raw := range snap.Orders.AllOrders {
		var o order.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			m.log.Warn("skipping malformed order record", "err", err)
			continue
		}
		if o.OrderID == "" || !o.Side.Valid() {
			m.log.Warn("skipping invalid order record", "order_id", o.OrderID)
			continue
		}
		if o.Status != market.OrderPending && o.Status != market.OrderPartiallyFilled {
			continue
		}
		coordinator.Restore(&o)
		restored++
	}

	if restored > 0 {
		m.log.Info("restored orders", "count", restored)
	}
	return restored
}

// Clear removes the snapshot file, if present.
func (m *Manager) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}
