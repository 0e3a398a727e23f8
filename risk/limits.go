package risk

// Limits is the static risk configuration applied to every trade.
type Limits struct {
	MaxPositionSize        float64 `json:"max_position_size" yaml:"max_position_size"`                 // per-trade notional cap
	MaxTotalExposure       float64 `json:"max_total_exposure" yaml:"max_total_exposure"`               // across all open positions
	MaxPerMarketExposure   float64 `json:"max_per_market_exposure" yaml:"max_per_market_exposure"`     // per market id
	MaxPerStrategyExposure float64 `json:"max_per_strategy_exposure" yaml:"max_per_strategy_exposure"` // per strategy name
	MaxDrawdownPct         float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`                   // vs. peak capital
	MaxOpenPositions       int     `json:"max_open_positions" yaml:"max_open_positions"`
	StopLossPct            float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	InitialCapital         float64 `json:"initial_capital" yaml:"initial_capital"`
}

// DefaultLimits mirrors the defaults the bot ships with.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:        1000,
		MaxTotalExposure:       10000,
		MaxPerMarketExposure:   2000,
		MaxPerStrategyExposure: 5000,
		MaxDrawdownPct:         20,
		MaxOpenPositions:       50,
		StopLossPct:            10,
		InitialCapital:         10000,
	}
}

// Metrics is a point-in-time risk summary. Reading it through
// Manager.Metrics advances the peak-capital watermark, so treat that call as
// non-idempotent.
type Metrics struct {
	TotalExposure       float64 `json:"total_exposure"`
	TotalPnL            float64 `json:"total_pnl"`
	CurrentCapital      float64 `json:"current_capital"`
	PeakCapital         float64 `json:"peak_capital"`
	DrawdownPct         float64 `json:"drawdown_pct"`
	OpenPositions       int     `json:"open_positions"`
	ExposureUtilization float64 `json:"exposure_utilization"`
}
