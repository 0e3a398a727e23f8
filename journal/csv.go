package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/tradekit/pmbot/market"
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"trade_id", "strategy", "market_id", "outcome", "side", "size", "entry_price", "exit_price", "open_time", "close_time", "pnl", "pnl_pct", "reason"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "capital", "peak_capital", "total_exposure", "drawdown_pct", "open_positions"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeEntry) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Strategy,
		t.MarketID,
		t.Outcome,
		string(t.Side),
		f(t.Size),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.PnL),
		f(t.PnLPct),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityEntry) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Capital),
		f(e.PeakCapital),
		f(e.TotalExposure),
		f(e.DrawdownPct),
		strconv.Itoa(e.OpenPositions),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func sideFromString(s string) market.Side {
	if s == string(market.Sell) {
		return market.Sell
	}
	return market.Buy
}
