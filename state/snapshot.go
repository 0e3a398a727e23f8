package state

import "encoding/json"

// Snapshot is the on-disk state shape. Record lists use RawMessage so a
// single malformed entry, possibly written by an older code version, cannot
// block restoring everything else.
type Snapshot struct {
	Timestamp     string                 `json:"timestamp"`
	Positions     PositionsBlock         `json:"positions"`
	Orders        OrdersBlock            `json:"orders"`
	Profitability ProfitabilityBlock     `json:"profitability"`
	Additional    map[string]interface{} `json:"additional"`
}

type PositionsBlock struct {
	OpenPositions        []json.RawMessage `json:"open_positions"`
	ClosedPositionsCount int               `json:"closed_positions_count"`
}

type OrdersBlock struct {
	AllOrders       []json.RawMessage `json:"all_orders"`
	PendingOrderIDs []string          `json:"pending_order_ids"`
}

type ProfitabilityBlock struct {
	InitialCapital float64 `json:"initial_capital"`
	CurrentCapital float64 `json:"current_capital"`
	TotalTrades    int     `json:"total_trades"`
	TotalPnL       float64 `json:"total_pnl"`
	ROI            float64 `json:"roi"`
}
