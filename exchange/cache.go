package exchange

import (
	"sync"
	"time"

	"github.com/tradekit/pmbot/market"
)

// QuoteCache holds the latest best bid/ask per (market, outcome). The
// real-time feed writes into it from its own goroutine while the trading
// loop reads, so every access goes through the mutex. Entries older than the
// TTL are treated as absent.
type QuoteCache struct {
	mu     sync.Mutex
	quotes map[quoteKey]market.Quote
	ttl    time.Duration
}

type quoteKey struct {
	marketID string
	outcome  string
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		quotes: make(map[quoteKey]market.Quote),
		ttl:    ttl,
	}
}

// Set stores the latest quote, stamping the time if unset.
func (c *QuoteCache) Set(q market.Quote) {
	if q.Time.IsZero() {
		q.Time = time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quoteKey{q.MarketID, q.Outcome}] = q
}

// Get returns the cached quote and whether a fresh one exists.
func (c *QuoteCache) Get(marketID, outcome string) (market.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.quotes[quoteKey{marketID, outcome}]
	if !ok {
		return market.Quote{}, false
	}
	if c.ttl > 0 && time.Since(q.Time) > c.ttl {
		return market.Quote{}, false
	}
	return q, true
}

// Clear drops every cached quote.
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes = make(map[quoteKey]market.Quote)
}

// Len returns the number of cached entries, fresh or not.
func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quotes)
}
