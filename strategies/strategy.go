package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradekit/pmbot/market"
)

// Opportunity is a candidate trade identified by a strategy's scan phase,
// not yet risk-checked or executed.
type Opportunity struct {
	MarketID string
	Outcome  string
	Side     market.Side
	Size     float64
	Price    float64
	// Detail carries strategy-specific figures (profit_pct, spread_pct)
	// for logging and order metadata.
	Detail map[string]interface{}
}

// Result reports what an executed opportunity produced.
type Result struct {
	Strategy    string
	OrderIDs    []string
	PositionIDs []string
}

// Strategy is one independently scheduled evaluator. Scan is a pure read
// over market data; Execute runs each candidate through the risk gate and
// places orders via the shared Trader.
type Strategy interface {
	Name() string
	Scan(ctx context.Context) ([]Opportunity, error)
	Execute(ctx context.Context, opp Opportunity) (*Result, error)
}

var registry = make(map[string]func(t *Trader, cfg Config) Strategy)

// Register makes a strategy constructor available to ByName.
func Register(name string, ctor func(t *Trader, cfg Config) Strategy) {
	registry[name] = ctor
}

// ByName builds a registered strategy.
func ByName(name string, t *Trader, cfg Config) (Strategy, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return ctor(t, cfg), nil
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// Config is the per-strategy configuration block.
type Config struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	Markets      []Market `json:"markets" yaml:"markets"`
	OrderSize    float64  `json:"order_size" yaml:"order_size"`
	MinSpreadPct float64  `json:"min_spread_pct" yaml:"min_spread_pct"`
	MinProfitPct float64  `json:"min_profit_pct" yaml:"min_profit_pct"`
	Tick         float64  `json:"tick" yaml:"tick"`
}

// Market names one tradable market and its outcome tokens.
type Market struct {
	ID       string   `json:"id" yaml:"id"`
	Outcomes []string `json:"outcomes" yaml:"outcomes"`
}
