// Package ingest loads the stock universe and its daily prices and market
// caps into the store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Stock is a symbol and its display name.
type Stock struct {
	Symbol string
	Name   string
}

// Bar is one day of price and market cap for a symbol.
type Bar struct {
	Symbol    string
	Date      time.Time
	Close     float64
	MarketCap float64
}

// Store writes ingested data. Both inserts leave existing rows untouched.
type Store interface {
	InsertStock(ctx context.Context, stock Stock) error
	InsertBars(ctx context.Context, bars []Bar) error
}

type Universe interface {
	Symbols(ctx context.Context) ([]string, error)
}

type MarketData interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]Close, error)
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// Summary counts the outcome of one ingest run.
type Summary struct {
	Symbols int `json:"symbols"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Bars    int `json:"bars"`
}

type Ingestor struct {
	universe    Universe
	market      MarketData
	store       Store
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

func NewIngestor(universe Universe, market MarketData, store Store, logger *slog.Logger, concurrency int) *Ingestor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Ingestor{
		universe:    universe,
		market:      market,
		store:       store,
		logger:      logger.With(slog.String("component", "ingest")),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run fetches lookbackDays*2 calendar days of history for every symbol in
// the universe. Symbols without history or share count are skipped and a
// failing symbol does not stop the others.
func (i *Ingestor) Run(ctx context.Context, lookbackDays int) (Summary, error) {
	began := i.now()

	symbols, err := i.universe.Symbols(ctx)
	if err != nil {
		i.logger.Warn("falling back to built-in universe", slog.Any("error", err))
		symbols = Nasdaq100Symbols()
	}

	quotes, err := i.market.Quotes(ctx, symbols)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch quotes: %w", err)
	}

	to := i.now()
	from := to.AddDate(0, 0, -lookbackDays*2)

	var mu sync.Mutex
	summary := Summary{Symbols: len(symbols)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := i.ingestSymbol(gctx, symbol, quotes[symbol], from, to)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				i.logger.Error("failed to ingest symbol", slog.String("symbol", symbol), slog.Any("error", err))
			case bars == 0:
				summary.Skipped++
			default:
				summary.Stored++
				summary.Bars += bars
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	i.logger.Info("ingest complete",
		slog.Int("symbols", summary.Symbols),
		slog.Int("stored", summary.Stored),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.String("bars", humanize.Comma(int64(summary.Bars))),
		slog.Duration("took", i.now().Sub(began)))

	return summary, nil
}

func (i *Ingestor) ingestSymbol(ctx context.Context, symbol string, quote Quote, from, to time.Time) (int, error) {
	if quote.SharesOutstanding <= 0 {
		return 0, nil
	}

	closes, err := i.market.History(ctx, symbol, from, to)
	if err != nil {
		return 0, err
	}
	if len(closes) == 0 {
		return 0, nil
	}

	name := quote.LongName
	if name == "" {
		name = quote.ShortName
	}
	if name == "" {
		name = symbol
	}
	if err := i.store.InsertStock(ctx, Stock{Symbol: symbol, Name: name}); err != nil {
		return 0, fmt.Errorf("insert stock: %w", err)
	}

	bars := make([]Bar, len(closes))
	for n, c := range closes {
		bars[n] = Bar{
			Symbol:    symbol,
			Date:      c.Date,
			Close:     c.Price,
			MarketCap: c.Price * quote.SharesOutstanding,
		}
	}
	if err := i.store.InsertBars(ctx, bars); err != nil {
		return 0, fmt.Errorf("insert bars: %w", err)
	}
	return len(bars), nil
}
