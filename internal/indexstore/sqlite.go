package indexstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/ingest"
	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// SQLite implements index.Store and ingest.Store on an embedded database.
// Dates are stored as YYYY-MM-DD text.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) TopByMarketCap(ctx context.Context, day time.Time, n int) ([]index.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.symbol, m.name, d.price, d.market_cap
		FROM daily_data d
		JOIN stock_metadata m ON m.symbol = d.symbol
		WHERE d.date = ?
		ORDER BY d.market_cap DESC NULLS LAST, d.symbol
		LIMIT ?`, sanitize.Date(day), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []index.Observation
	for rows.Next() {
		var o index.Observation
		var price, marketCap sql.NullFloat64
		if err := rows.Scan(&o.Symbol, &o.Name, &price, &marketCap); err != nil {
			return nil, err
		}
		o.Price = nullFloat(price)
		o.MarketCap = nullFloat(marketCap)
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

func (s *SQLite) SaveDay(ctx context.Context, perf index.Performance, constituents []index.Constituent) error {
	date := sanitize.Date(perf.Date)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO index_performance (date, index_value, daily_return, cumulative_return)
		VALUES (?, ?, ?, ?)`,
		date, nullable(perf.IndexValue), nullable(perf.DailyReturn), nullable(perf.CumulativeReturn))
	if err != nil {
		return fmt.Errorf("upsert performance: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO index_composition (date, symbol, weight) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	keep := make([]any, 0, len(constituents)+1)
	keep = append(keep, date)
	for _, c := range constituents {
		if _, err := stmt.ExecContext(ctx, date, c.Symbol, c.Weight); err != nil {
			return fmt.Errorf("upsert composition %s: %w", c.Symbol, err)
		}
		keep = append(keep, c.Symbol)
	}

	prune := `DELETE FROM index_composition WHERE date = ?`
	if len(constituents) > 0 {
		prune += ` AND symbol NOT IN (?` + strings.Repeat(",?", len(constituents)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, prune, keep...); err != nil {
		return fmt.Errorf("prune composition: %w", err)
	}

	return tx.Commit()
}

func (s *SQLite) PerformanceRange(ctx context.Context, from, to time.Time) ([]index.Performance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, index_value, daily_return, cumulative_return
		FROM index_performance
		WHERE date BETWEEN ? AND ?
		ORDER BY date`, sanitize.Date(from), sanitize.Date(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []index.Performance
	for rows.Next() {
		var date string
		var value, daily, cumulative sql.NullFloat64
		if err := rows.Scan(&date, &value, &daily, &cumulative); err != nil {
			return nil, err
		}
		d, err := time.Parse(sanitize.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in index_performance: %w", date, err)
		}
		out = append(out, index.Performance{
			Date:             d,
			IndexValue:       nullFloat(value),
			DailyReturn:      nullFloat(daily),
			CumulativeReturn: nullFloat(cumulative),
		})
	}
	return out, rows.Err()
}

func (s *SQLite) Snapshot(ctx context.Context, day time.Time) ([]index.Constituent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.symbol, m.name, c.weight
		FROM index_composition c
		JOIN stock_metadata m ON m.symbol = c.symbol
		WHERE c.date = ?
		ORDER BY c.symbol`, sanitize.Date(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []index.Constituent
	for rows.Next() {
		c := index.Constituent{Date: day}
		if err := rows.Scan(&c.Symbol, &c.Name, &c.Weight); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) SnapshotSymbols(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.symbol
		FROM index_composition c
		JOIN stock_metadata m ON m.symbol = c.symbol
		WHERE c.date = ?
		ORDER BY c.symbol`, sanitize.Date(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLite) InsertStock(ctx context.Context, stock ingest.Stock) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO stock_metadata (symbol, name) VALUES (?, ?)`,
		stock.Symbol, stock.Name)
	return err
}

func (s *SQLite) InsertBars(ctx context.Context, bars []ingest.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO daily_data (symbol, date, price, market_cap) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.ExecContext(ctx, bar.Symbol, sanitize.Date(bar.Date), bar.Close, bar.MarketCap); err != nil {
			return fmt.Errorf("insert %s %s: %w", bar.Symbol, sanitize.Date(bar.Date), err)
		}
	}
	return tx.Commit()
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func nullable(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
