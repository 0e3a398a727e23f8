package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tradekit/pmbot/config"
	"github.com/tradekit/pmbot/exchange"
	"github.com/tradekit/pmbot/internal/id"
	"github.com/tradekit/pmbot/journal"
	"github.com/tradekit/pmbot/order"
	"github.com/tradekit/pmbot/position"
	"github.com/tradekit/pmbot/profit"
	"github.com/tradekit/pmbot/risk"
	"github.com/tradekit/pmbot/state"
	"github.com/tradekit/pmbot/strategies"
)

// Runner drives the polling loop: each iteration evaluates every enabled
// strategy sequentially (scan, risk gate, execute), sweeps stop losses,
// and persists state. Strategy mutations are naturally serialized by the
// sequential loop; the trackers carry their own locks anyway so the feed
// goroutine and a concurrent snapshot cannot interleave unguarded.
type Runner struct {
	cfg     *config.Config
	exch    exchange.Exchange
	quotes  *exchange.QuoteCache
	orders  *order.Coordinator
	risk    *risk.Manager
	profits *profit.Tracker
	states  *state.Manager
	journal journal.Journal
	strats  []strategies.Strategy
	log     *slog.Logger
	iter    int
	started time.Time
}

// New wires the core together. The exchange, quote cache and journal are
// injected collaborators; everything else is owned here.
func New(cfg *config.Config, exch exchange.Exchange, quotes *exchange.QuoteCache, j journal.Journal, log *slog.Logger) (*Runner, error) {
	if log == nil {
		log = slog.Default()
	}
	if j == nil {
		j = journal.Nop{}
	}

	states, err := state.NewManager(cfg.State.File, log)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		exch:    exch,
		quotes:  quotes,
		orders:  order.NewCoordinator(log),
		risk:    risk.NewManager(cfg.Risk, log),
		profits: profit.NewTracker(),
		states:  states,
		journal: j,
		log:     log,
		started: time.Now(),
	}
	r.profits.SetInitialCapital(cfg.Risk.InitialCapital)

	trader := &strategies.Trader{
		Exchange: exch,
		Orders:   r.orders,
		Risk:     r.risk,
		Quotes:   quotes,
		Log:      log,
	}

	names := make([]string, 0, len(cfg.Strategies))
	for name := range cfg.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sc := cfg.Strategies[name]
		if !sc.Enabled {
			log.Debug("strategy disabled", "strategy", name)
			continue
		}
		s, err := strategies.ByName(name, trader, sc)
		if err != nil {
			return nil, fmt.Errorf("configure strategy: %w", err)
		}
		r.strats = append(r.strats, s)
	}

	return r, nil
}

// Orders exposes the coordinator, for the CLI and tests.
func (r *Runner) Orders() *order.Coordinator { return r.orders }

// Risk exposes the risk manager, for the CLI and tests.
func (r *Runner) Risk() *risk.Manager { return r.risk }

// Profits exposes the profitability tracker.
func (r *Runner) Profits() *profit.Tracker { return r.profits }

// Restore reloads the previous snapshot, if any, and reconciles pending
// orders against the exchange before trading resumes. Reconciliation is
// best effort: a failed listing call is logged, not fatal.
func (r *Runner) Restore(ctx context.Context) {
	snap, err := r.states.Load()
	if err != nil {
		r.log.Warn("failed to load state, starting empty", "err", err)
		return
	}
	if snap == nil {
		return
	}

	nPos := r.states.RestorePositions(snap, r.risk.Tracker())
	nOrd := r.states.RestoreOrders(snap, r.orders)
	r.log.Info("state restored", "positions", nPos, "orders", nOrd)

	if nOrd > 0 {
		listing, err := r.exch.ListOrders(ctx, "")
		if err != nil {
			r.log.Warn("startup reconcile skipped", "err", err)
			return
		}
		report := r.orders.Reconcile(listing)
		r.log.Info("startup reconcile",
			"matched", report.Matched,
			"missing_on_exchange", len(report.MissingOnExchange),
			"missing_locally", len(report.MissingLocally),
			"mismatches", len(report.StatusMismatches))
	}
}

// RunIteration performs one polling cycle and returns the number of trades
// executed. Each strategy's turn runs inside its own fault boundary: a
// panicking strategy is logged and the loop moves on.
func (r *Runner) RunIteration(ctx context.Context) int {
	r.iter++
	start := time.Now()
	executed := 0

	for _, s := range r.strats {
		executed += r.runStrategy(ctx, s)
	}

	r.sweepStopLosses(ctx)

	if r.iter%10 == 0 {
		r.logRiskMetrics()
	}

	if err := r.SaveState(); err != nil {
		r.log.Warn("state save failed, continuing without durable state", "err", err)
	}

	r.log.Debug("iteration complete",
		"iteration", r.iter, "trades", executed, "took", time.Since(start))
	return executed
}

func (r *Runner) runStrategy(ctx context.Context, s strategies.Strategy) (executed int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("strategy panicked", "strategy", s.Name(), "panic", rec)
		}
	}()

	opps, err := s.Scan(ctx)
	if err != nil {
		r.log.Warn("scan failed", "strategy", s.Name(), "err", err)
		return 0
	}
	if len(opps) == 0 {
		return 0
	}
	r.log.Debug("scan complete", "strategy", s.Name(), "opportunities", len(opps))

	for _, opp := range opps {
		res, err := s.Execute(ctx, opp)
		if err != nil {
			r.log.Warn("execute failed", "strategy", s.Name(),
				"market", opp.MarketID, "err", err)
			continue
		}
		if res != nil {
			executed++
		}
	}
	return executed
}

// sweepStopLosses closes every open position whose live P&L breached the
// stop-loss threshold. The check and the close are separate calls so the
// close can be paired with cancelling the position's resting order.
func (r *Runner) sweepStopLosses(ctx context.Context) {
	for _, p := range r.risk.Tracker().Open() {
		outcome, _ := p.Metadata["outcome"].(string)
		q, ok := r.quotes.Get(p.MarketID, outcome)
		if !ok {
			var err error
			q, err = r.exch.BestQuote(ctx, p.MarketID, outcome)
			if err != nil {
				continue
			}
		}

		price := q.Mid()
		if !r.risk.CheckStopLoss(p.PositionID, price) {
			continue
		}

		if orderID, ok := p.Metadata["order_id"].(string); ok {
			if r.orders.Cancel(orderID) {
				if err := r.exch.CancelOrder(ctx, orderID); err != nil {
					r.log.Warn("failed to cancel order for stopped position",
						"order_id", orderID, "err", err)
				}
			}
		}

		closed := r.risk.ClosePosition(p.PositionID, price)
		if closed == nil {
			continue
		}
		r.recordClose(closed, "stop_loss")
	}
}

// recordClose feeds a realized position into profitability tracking and the
// durable journal.
func (r *Runner) recordClose(p *position.Position, reason string) {
	now := time.Now()
	r.profits.Record(profit.TradeRecord{
		TradeID:    id.WithPrefix("trd_"),
		Strategy:   p.Strategy,
		MarketID:   p.MarketID,
		EntryTime:  p.Timestamp,
		ExitTime:   now,
		EntryPrice: p.EntryPrice,
		ExitPrice:  p.CurrentPrice,
		Size:       p.Size,
		Side:       p.Side,
		PnL:        p.PnL,
		PnLPct:     p.PnLPct,
	})

	outcome, _ := p.Metadata["outcome"].(string)
	if err := r.journal.RecordTrade(journal.TradeEntry{
		TradeID:    p.PositionID,
		Strategy:   p.Strategy,
		MarketID:   p.MarketID,
		Outcome:    outcome,
		Side:       p.Side,
		Size:       p.Size,
		EntryPrice: p.EntryPrice,
		ExitPrice:  p.CurrentPrice,
		OpenTime:   p.Timestamp,
		CloseTime:  now,
		PnL:        p.PnL,
		PnLPct:     p.PnLPct,
		Reason:     reason,
	}); err != nil {
		r.log.Warn("journal write failed", "err", err)
	}
}

// ClosePosition closes one position at exitPrice on behalf of a strategy or
// operator and records the realized trade.
func (r *Runner) ClosePosition(positionID string, exitPrice float64, reason string) *position.Position {
	closed := r.risk.ClosePosition(positionID, exitPrice)
	if closed != nil {
		r.recordClose(closed, reason)
	}
	return closed
}

func (r *Runner) logRiskMetrics() {
	m := r.risk.Metrics()
	r.log.Info("risk metrics",
		"exposure", m.TotalExposure,
		"pnl", m.TotalPnL,
		"capital", m.CurrentCapital,
		"peak", m.PeakCapital,
		"drawdown_pct", m.DrawdownPct,
		"open_positions", m.OpenPositions,
		"utilization_pct", m.ExposureUtilization)

	if err := r.journal.RecordEquity(journal.EquityEntry{
		Time:          time.Now(),
		Capital:       m.CurrentCapital,
		PeakCapital:   m.PeakCapital,
		TotalExposure: m.TotalExposure,
		DrawdownPct:   m.DrawdownPct,
		OpenPositions: m.OpenPositions,
	}); err != nil {
		r.log.Warn("journal write failed", "err", err)
	}
}

// SaveState writes the combined snapshot. Safe to call concurrently with
// trading; the trackers hand out consistent copies under their own locks.
func (r *Runner) SaveState() error {
	return r.states.Save(r.risk.Tracker(), r.orders, r.profits, map[string]interface{}{
		"iteration_count": r.iter,
		"uptime":          time.Since(r.started).String(),
	})
}

// Run loops until ctx is cancelled, then performs one final save. This is
// the path the signal handler drives on SIGINT/SIGTERM.
func (r *Runner) Run(ctx context.Context) error {
	interval, err := r.cfg.Bot.ParsePollInterval()
	if err != nil {
		return err
	}

	r.Restore(ctx)
	r.log.Info("bot started",
		"strategies", len(r.strats), "poll_interval", interval,
		"paper", r.cfg.Bot.PaperTrading)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("shutting down", "iterations", r.iter)
			if err := r.SaveState(); err != nil {
				r.log.Error("final state save failed", "err", err)
			}
			return nil
		case <-ticker.C:
			r.RunIteration(ctx)
		}
	}
}
