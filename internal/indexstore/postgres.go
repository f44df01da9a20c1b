// Package indexstore persists stock observations and the built index in
// postgres or sqlite.
package indexstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/ingest"
	"github.com/arnabmitra/topcap-index/internal/repository"
)

// Pool is the part of pgxpool.Pool the store uses.
type Pool interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres implements index.Store and ingest.Store on the sqlc queries.
type Postgres struct {
	pool Pool
	q    *repository.Queries
}

func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool, q: repository.New(pool)}
}

func (s *Postgres) TopByMarketCap(ctx context.Context, day time.Time, n int) ([]index.Observation, error) {
	rows, err := s.q.GetTopByMarketCap(ctx, repository.GetTopByMarketCapParams{
		Date:  timeToPgDate(day),
		Limit: int32(n),
	})
	if err != nil {
		return nil, err
	}

	observations := make([]index.Observation, len(rows))
	for i, row := range rows {
		observations[i] = index.Observation{
			Symbol:    row.Symbol,
			Name:      row.Name,
			Price:     float8Ptr(row.Price),
			MarketCap: float8Ptr(row.MarketCap),
		}
	}
	return observations, nil
}

func (s *Postgres) SaveDay(ctx context.Context, perf index.Performance, constituents []index.Constituent) error {
	date := timeToPgDate(perf.Date)
	symbols := make([]string, len(constituents))
	weights := make([]float64, len(constituents))
	for i, c := range constituents {
		symbols[i] = c.Symbol
		weights[i] = c.Weight
	}

	return s.inTx(ctx, func(q *repository.Queries) error {
		err := q.UpsertIndexPerformance(ctx, repository.UpsertIndexPerformanceParams{
			Date:             date,
			IndexValue:       ptrFloat8(perf.IndexValue),
			DailyReturn:      ptrFloat8(perf.DailyReturn),
			CumulativeReturn: ptrFloat8(perf.CumulativeReturn),
		})
		if err != nil {
			return fmt.Errorf("upsert performance: %w", err)
		}

		err = q.UpsertIndexComposition(ctx, repository.UpsertIndexCompositionParams{
			Date:    date,
			Symbols: symbols,
			Weights: weights,
		})
		if err != nil {
			return fmt.Errorf("upsert composition: %w", err)
		}

		err = q.DeleteStaleComposition(ctx, repository.DeleteStaleCompositionParams{Date: date, Keep: symbols})
		if err != nil {
			return fmt.Errorf("prune composition: %w", err)
		}
		return nil
	})
}

func (s *Postgres) PerformanceRange(ctx context.Context, from, to time.Time) ([]index.Performance, error) {
	rows, err := s.q.ListIndexPerformance(ctx, repository.ListIndexPerformanceParams{
		FromDate: timeToPgDate(from),
		ToDate:   timeToPgDate(to),
	})
	if err != nil {
		return nil, err
	}

	out := make([]index.Performance, len(rows))
	for i, row := range rows {
		out[i] = index.Performance{
			Date:             dateToTime(row.Date),
			IndexValue:       float8Ptr(row.IndexValue),
			DailyReturn:      float8Ptr(row.DailyReturn),
			CumulativeReturn: float8Ptr(row.CumulativeReturn),
		}
	}
	return out, nil
}

func (s *Postgres) Snapshot(ctx context.Context, day time.Time) ([]index.Constituent, error) {
	rows, err := s.q.ListIndexComposition(ctx, timeToPgDate(day))
	if err != nil {
		return nil, err
	}

	out := make([]index.Constituent, len(rows))
	for i, row := range rows {
		out[i] = index.Constituent{
			Date:   dateToTime(row.Date),
			Symbol: row.Symbol,
			Name:   row.Name,
			Weight: row.Weight,
		}
	}
	return out, nil
}

func (s *Postgres) SnapshotSymbols(ctx context.Context, day time.Time) ([]string, error) {
	return s.q.ListCompositionSymbols(ctx, timeToPgDate(day))
}

func (s *Postgres) InsertStock(ctx context.Context, stock ingest.Stock) error {
	return s.q.InsertStockMetadata(ctx, repository.InsertStockMetadataParams{
		Symbol: stock.Symbol,
		Name:   stock.Name,
	})
}

func (s *Postgres) InsertBars(ctx context.Context, bars []ingest.Bar) error {
	return s.inTx(ctx, func(q *repository.Queries) error {
		for _, bar := range bars {
			err := q.InsertDailyData(ctx, repository.InsertDailyDataParams{
				Symbol:    bar.Symbol,
				Date:      timeToPgDate(bar.Date),
				Price:     pgtype.Float8{Float64: bar.Close, Valid: true},
				MarketCap: pgtype.Float8{Float64: bar.MarketCap, Valid: true},
			})
			if err != nil {
				return fmt.Errorf("insert %s %s: %w", bar.Symbol, bar.Date.Format(time.DateOnly), err)
			}
		}
		return nil
	})
}

// inTx runs fn on queries bound to one transaction and commits when fn
// succeeds.
func (s *Postgres) inTx(ctx context.Context, fn func(q *repository.Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.q.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func dateToTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

func timeToPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{
		Time:  t,
		Valid: !t.IsZero(),
	}
}

func float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func ptrFloat8(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}
