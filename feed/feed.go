package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradekit/pmbot/exchange"
	"github.com/tradekit/pmbot/market"
)

// Feed maintains a websocket subscription to the exchange's market channel
// and writes best bid/ask updates into the shared quote cache. It runs on
// its own goroutine; the cache's mutex is the only coupling to the trading
// loop.
type Feed struct {
	url    string
	assets []string
	cache  *exchange.QuoteCache
	log    *slog.Logger

	dialTimeout  time.Duration
	readTimeout  time.Duration
	pingInterval time.Duration
	backoffMax   time.Duration
}

// bookMsg is the wire shape of a book/price update.
type bookMsg struct {
	EventType string `json:"event_type"`
	MarketID  string `json:"market"`
	Outcome   string `json:"outcome"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
}

type subscribeMsg struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

func New(url string, assets []string, cache *exchange.QuoteCache, log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		url:          url,
		assets:       assets,
		cache:        cache,
		log:          log,
		dialTimeout:  10 * time.Second,
		readTimeout:  60 * time.Second,
		pingInterval: 20 * time.Second,
		backoffMax:   30 * time.Second,
	}
}

// Run connects and pumps updates until ctx is cancelled, reconnecting with
// capped exponential backoff on any error.
func (f *Feed) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := f.session(ctx)
		if ctx.Err() != nil {
			return
		}
		f.log.Warn("feed disconnected", "err", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > f.backoffMax {
			backoff = f.backoffMax
		}
	}
}

func (f *Feed) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(subscribeMsg{Type: "market", AssetsIDs: f.assets}); err != nil {
		return err
	}
	f.log.Info("feed connected", "url", f.url, "assets", len(f.assets))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go f.pingLoop(ctx, conn)

	for {
		conn.SetReadDeadline(time.Now().Add(f.readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handle(data)
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (f *Feed) handle(data []byte) {
	var msg bookMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		f.log.Debug("unparsable feed message", "err", err)
		return
	}
	if msg.EventType != "book" && msg.EventType != "price_change" {
		return
	}

	bid, okBid := parsePrice(msg.BestBid)
	ask, okAsk := parsePrice(msg.BestAsk)
	if !okBid || !okAsk {
		return
	}

	f.cache.Set(market.Quote{
		MarketID: msg.MarketID,
		Outcome:  msg.Outcome,
		Bid:      bid,
		Ask:      ask,
		Time:     time.Now(),
	})
}

func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return 0, false
	}
	return v, true
}
