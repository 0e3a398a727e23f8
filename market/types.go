package market

import "time"

// Side is the direction of an order or position.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// OrderStatus tracks an order through its lifecycle. Transitions are
// monotonic: a terminal status (Filled, Cancelled, Failed) is never left.
type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCancelled       OrderStatus = "cancelled"
	OrderFailed          OrderStatus = "failed"
)

// Terminal reports whether the status ends the order's pending life.
func (s OrderStatus) Terminal() bool {
	return s == OrderFilled || s == OrderCancelled || s == OrderFailed
}

// PositionStatus is the state of a tracked position.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "open"
	PositionClosed  PositionStatus = "closed"
	PositionPartial PositionStatus = "partial"
)

// Quote is the best bid/ask for one outcome token of a market.
type Quote struct {
	MarketID string
	Outcome  string
	Bid      float64
	Ask      float64
	Time     time.Time
}

func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// Spread returns the absolute bid/ask spread.
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// ExchangeOrder is one row of an exchange open-order listing, as consumed by
// reconciliation. Status uses the exchange's vocabulary, lower-cased.
type ExchangeOrder struct {
	OrderID  string
	MarketID string
	Outcome  string
	Side     string
	Size     float64
	Price    float64
	Status   string
}
