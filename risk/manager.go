package risk

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tradekit/pmbot/market"
	"github.com/tradekit/pmbot/position"
)

// Manager is the gatekeeper invoked before every trade: the single choke
// point enforcing capital safety. It exclusively owns its position tracker.
//
// Checks are advisory-blocking: a rejected trade returns (false, reason) and
// is simply not placed this cycle. Nothing here panics on a limit breach.
type Manager struct {
	mu      sync.Mutex
	limits  Limits
	tracker *position.Tracker
	peak    float64 // peak capital, never decreases
	log     *slog.Logger
}

func NewManager(limits Limits, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		limits:  limits,
		tracker: position.NewTracker(log),
		peak:    limits.InitialCapital,
		log:     log,
	}
}

// Tracker exposes the owned position tracker for reads and for state
// restore. Mutation during trading should go through the manager.
func (m *Manager) Tracker() *position.Tracker { return m.tracker }

// Limits returns the configured limits.
func (m *Manager) Limits() Limits { return m.limits }

// CheckTradeAllowed evaluates the limit checks in a fixed order and returns
// the first failing reason. Order: position size, total exposure, market
// exposure, strategy exposure, open-position count, drawdown.
func (m *Manager) CheckTradeAllowed(strategy, marketID string, size, price float64, side market.Side) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkLocked(strategy, marketID, size, price)
}

func (m *Manager) checkLocked(strategy, marketID string, size, price float64) (bool, string) {
	tradeValue := size * price

	if tradeValue > m.limits.MaxPositionSize {
		return false, fmt.Sprintf("trade size $%.2f exceeds max position size $%.2f",
			tradeValue, m.limits.MaxPositionSize)
	}

	totalExposure := m.tracker.TotalExposure("")
	if totalExposure+tradeValue > m.limits.MaxTotalExposure {
		return false, fmt.Sprintf("total exposure $%.2f exceeds limit $%.2f",
			totalExposure+tradeValue, m.limits.MaxTotalExposure)
	}

	marketExposure := m.tracker.MarketExposure(marketID)
	if marketExposure+tradeValue > m.limits.MaxPerMarketExposure {
		return false, fmt.Sprintf("market exposure $%.2f exceeds limit $%.2f",
			marketExposure+tradeValue, m.limits.MaxPerMarketExposure)
	}

	strategyExposure := m.tracker.TotalExposure(strategy)
	if strategyExposure+tradeValue > m.limits.MaxPerStrategyExposure {
		return false, fmt.Sprintf("strategy exposure $%.2f exceeds limit $%.2f",
			strategyExposure+tradeValue, m.limits.MaxPerStrategyExposure)
	}

	if open := m.tracker.OpenCount(); open >= m.limits.MaxOpenPositions {
		return false, fmt.Sprintf("open positions %d exceeds limit %d",
			open, m.limits.MaxOpenPositions)
	}

	drawdown := m.advancePeakLocked()
	if drawdown > m.limits.MaxDrawdownPct {
		return false, fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%",
			drawdown, m.limits.MaxDrawdownPct)
	}

	return true, ""
}

// ApproveTrade runs the limit checks and, on approval, registers the
// position in one critical section. Concurrent strategies can call this
// without two of them passing the exposure check against the same stale
// total; the plain CheckTradeAllowed/AddPosition pair remains for the
// sequential loop.
func (m *Manager) ApproveTrade(p *position.Position) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed, reason := m.checkLocked(p.Strategy, p.MarketID, p.Size, p.EntryPrice)
	if !allowed {
		return false, reason
	}
	m.tracker.Add(p)
	return true, ""
}

// AddPosition registers a position with tracking.
func (m *Manager) AddPosition(p *position.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.Add(p)
}

// ClosePosition realizes a position at exitPrice. Returns nil on unknown id.
func (m *Manager) ClosePosition(positionID string, exitPrice float64) *position.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Close(positionID, exitPrice)
}

// CheckStopLoss reports whether a position's live P&L has fallen to or below
// the stop-loss threshold. It never closes the position: the caller pairs
// the close with its own side effects (cancelling a hedge, logging) at the
// call site.
func (m *Manager) CheckStopLoss(positionID string, currentPrice float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.tracker.Get(positionID)
	if p == nil {
		return false
	}

	pnlPct := p.LivePnLPct(currentPrice)
	if pnlPct <= -m.limits.StopLossPct {
		m.log.Warn("stop loss triggered",
			"position_id", positionID, "pnl_pct", pnlPct)
		return true
	}
	return false
}

// Metrics returns the current risk summary. Side effect: peak capital is
// advanced if current capital is a new high.
func (m *Manager) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	totalExposure := m.tracker.TotalExposure("")
	totalPnL := m.tracker.TotalPnL()
	current := m.limits.InitialCapital + totalPnL
	drawdown := m.advancePeakLocked()

	var utilization float64
	if m.limits.MaxTotalExposure > 0 {
		utilization = totalExposure / m.limits.MaxTotalExposure * 100
	}

	return Metrics{
		TotalExposure:       totalExposure,
		TotalPnL:            totalPnL,
		CurrentCapital:      current,
		PeakCapital:         m.peak,
		DrawdownPct:         drawdown,
		OpenPositions:       m.tracker.OpenCount(),
		ExposureUtilization: utilization,
	}
}

// advancePeakLocked ratchets the peak-capital watermark and returns the
// drawdown percentage relative to it. Drawdown is always measured against
// the peak, never the initial capital.
func (m *Manager) advancePeakLocked() float64 {
	current := m.limits.InitialCapital + m.tracker.TotalPnL()
	if current > m.peak {
		m.peak = current
	}
	if m.peak <= 0 {
		return 0
	}
	return (m.peak - current) / m.peak * 100
}
