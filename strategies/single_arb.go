package strategies

import (
	"context"

	"github.com/tradekit/pmbot/market"
)

func init() {
	Register("single_arbitrage", func(t *Trader, cfg Config) Strategy {
		return &SingleArbitrage{trader: t, cfg: cfg}
	})
}

// SingleArbitrage buys every outcome of one market when the asks sum to
// less than $1: the basket settles at exactly $1, so the gap is locked-in
// profit regardless of the result.
type SingleArbitrage struct {
	trader *Trader
	cfg    Config
}

func (s *SingleArbitrage) Name() string { return "single_arbitrage" }

func (s *SingleArbitrage) Scan(ctx context.Context) ([]Opportunity, error) {
	var opps []Opportunity

	for _, m := range s.cfg.Markets {
		if len(m.Outcomes) < 2 {
			continue
		}

		var askSum float64
		quotes := make([]market.Quote, 0, len(m.Outcomes))
		complete := true
		for _, outcome := range m.Outcomes {
			q, err := s.trader.Quote(ctx, m.ID, outcome)
			if err != nil || q.Ask <= 0 {
				complete = false
				break
			}
			askSum += q.Ask
			quotes = append(quotes, q)
		}
		if !complete || askSum <= 0 || askSum >= 1 {
			continue
		}

		profitPct := (1 - askSum) / askSum * 100
		if profitPct < s.cfg.MinProfitPct {
			continue
		}

		// One opportunity per leg; Execute places them individually so each
		// leg passes through the risk gate and duplicate check on its own.
		for _, q := range quotes {
			opps = append(opps, Opportunity{
				MarketID: m.ID,
				Outcome:  q.Outcome,
				Side:     market.Buy,
				Size:     s.cfg.OrderSize,
				Price:    q.Ask,
				Detail: map[string]interface{}{
					"profit_pct": profitPct,
					"ask_sum":    askSum,
				},
			})
		}
	}

	return opps, nil
}

func (s *SingleArbitrage) Execute(ctx context.Context, opp Opportunity) (*Result, error) {
	p, o, err := s.trader.Place(ctx, s.Name(), opp)
	if err != nil || p == nil {
		return nil, err
	}
	return &Result{
		Strategy:    s.Name(),
		OrderIDs:    []string{o.OrderID},
		PositionIDs: []string{p.PositionID},
	}, nil
}
