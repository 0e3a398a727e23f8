package strategies

import (
	"context"

	"github.com/tradekit/pmbot/market"
)

func init() {
	Register("micro_spread", func(t *Trader, cfg Config) Strategy {
		return &MicroSpread{trader: t, cfg: cfg}
	})
}

// MicroSpread bids just above the best bid in markets whose spread is wide
// enough to pay for the round trip.
type MicroSpread struct {
	trader *Trader
	cfg    Config
}

func (s *MicroSpread) Name() string { return "micro_spread" }

func (s *MicroSpread) Scan(ctx context.Context) ([]Opportunity, error) {
	var opps []Opportunity

	for _, m := range s.cfg.Markets {
		for _, outcome := range m.Outcomes {
			q, err := s.trader.Quote(ctx, m.ID, outcome)
			if err != nil {
				continue
			}
			mid := q.Mid()
			if mid <= 0 || q.Bid <= 0 || q.Ask <= q.Bid {
				continue
			}

			spreadPct := q.Spread() / mid * 100
			if spreadPct < s.cfg.MinSpreadPct {
				continue
			}

			bid := q.Bid + s.cfg.Tick
			if bid >= q.Ask {
				continue
			}

			opps = append(opps, Opportunity{
				MarketID: m.ID,
				Outcome:  outcome,
				Side:     market.Buy,
				Size:     s.cfg.OrderSize,
				Price:    bid,
				Detail: map[string]interface{}{
					"current_spread_pct": spreadPct,
				},
			})
		}
	}

	return opps, nil
}

func (s *MicroSpread) Execute(ctx context.Context, opp Opportunity) (*Result, error) {
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
