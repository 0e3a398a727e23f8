package order

import (
	"time"

	"github.com/tradekit/pmbot/market"
)

// staleAfter is how long a pending order may be absent from the exchange's
// open-order listing before reconciliation assumes it settled. The exchange
// drops filled orders from "open" listings, so absence plus age is the only
// signal we get.
const staleAfter = 5 * time.Minute

// Report is the outcome of one reconciliation pass. Nothing is silently
// dropped: every anomaly is listed for the caller to act on.
type Report struct {
	Matched           int      `json:"matched"`
	MissingOnExchange []string `json:"missing_on_exchange"`
	MissingLocally    []string `json:"missing_locally"`
	StatusMismatches  []string `json:"status_mismatches"`
}

// Reconcile compares local pending orders against an exchange open-order
// listing and adopts the exchange's view on divergence:
//
//   - locally pending, absent from the exchange, older than staleAfter:
//     assumed filled and transitioned;
//   - status mismatch: the exchange status wins;
//   - present on the exchange but unknown locally: flagged MissingLocally
//     (an external-origin or restart-orphaned order).
func (c *Coordinator) Reconcile(exchangeOrders []market.ExchangeOrder) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[string]market.ExchangeOrder, len(exchangeOrders))
	for _, eo := range exchangeOrders {
		if eo.OrderID != "" {
			byID[eo.OrderID] = eo
		}
	}

	var report Report

	pendingIDs := make([]string, 0, len(c.pending))
	for id := range c.pending {
		pendingIDs = append(pendingIDs, id)
	}

	for _, id := range pendingIDs {
		o, ok := c.orders[id]
		if !ok {
			continue
		}

		eo, onExchange := byID[id]
		if !onExchange {
			report.MissingOnExchange = append(report.MissingOnExchange, id)
			age := time.Since(o.CreatedAt)
			if age > staleAfter {
				c.log.Warn("pending order missing on exchange, assuming filled",
					"order_id", id, "age", age)
				c.updateStatusLocked(id, market.OrderFilled, -1)
			}
			continue
		}

		report.Matched++
		switch eo.Status {
		case "filled":
			if o.Status != market.OrderFilled {
				c.updateStatusLocked(id, market.OrderFilled, -1)
				report.StatusMismatches = append(report.StatusMismatches, id)
			}
		case "cancelled":
			if o.Status != market.OrderCancelled {
				c.updateStatusLocked(id, market.OrderCancelled, -1)
				report.StatusMismatches = append(report.StatusMismatches, id)
			}
		}
	}

	for _, eo := range exchangeOrders {
		if eo.OrderID == "" {
			continue
		}
		if _, known := c.orders[eo.OrderID]; !known {
			report.MissingLocally = append(report.MissingLocally, eo.OrderID)
		}
	}

	return report
}
