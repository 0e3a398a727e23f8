package order

import (
	"time"

	"github.com/tradekit/pmbot/market"
)

// Order is a single submitted instruction tracked by the coordinator.
type Order struct {
	OrderID    string                 `json:"order_id"`
	MarketID   string                 `json:"market_id"`
	Outcome    string                 `json:"outcome"`
	Side       market.Side            `json:"side"`
	Size       float64                `json:"size"`
	Price      float64                `json:"price"`
	FilledSize float64                `json:"filled_size"`
	Status     market.OrderStatus     `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Strategy   string                 `json:"strategy"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Value is the notional size*price of the order.
func (o *Order) Value() float64 { return o.Size * o.Price }

// Request carries the caller-supplied fields for a new order.
type Request struct {
	OrderID  string
	MarketID string
	Outcome  string
	Side     market.Side
	Size     float64
	Price    float64
	Strategy string
	Metadata map[string]interface{}
}

// Stats summarizes the coordinator's order counts.
type Stats struct {
	Total     int `json:"total_orders"`
	Pending   int `json:"pending_orders"`
	Filled    int `json:"filled_orders"`
	Cancelled int `json:"cancelled_orders"`
}
