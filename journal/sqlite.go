package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeEntry) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, strategy, market_id, outcome, side, size, entry_price, exit_price, open_time, close_time, pnl, pnl_pct, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Strategy, t.MarketID, t.Outcome, string(t.Side), t.Size,
		t.EntryPrice, t.ExitPrice, t.OpenTime, t.CloseTime, t.PnL, t.PnLPct, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityEntry) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, capital, peak_capital, total_exposure, drawdown_pct, open_positions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time, e.Capital, e.PeakCapital, e.TotalExposure, e.DrawdownPct, e.OpenPositions,
	)
	return err
}

// TradesByStrategy returns journaled trades for one strategy, oldest first.
func (j *SQLiteJournal) TradesByStrategy(strategy string) ([]TradeEntry, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, strategy, market_id, outcome, side, size, entry_price, exit_price, open_time, close_time, pnl, pnl_pct, reason
		FROM trades WHERE strategy = ? ORDER BY close_time`, strategy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeEntry
	for rows.Next() {
		var t TradeEntry
		var side string
		if err := rows.Scan(&t.TradeID, &t.Strategy, &t.MarketID, &t.Outcome, &side,
			&t.Size, &t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
			&t.PnL, &t.PnLPct, &t.Reason); err != nil {
			return nil, err
		}
		t.Side = sideFromString(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
