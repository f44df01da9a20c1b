package indexstore

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/ingest"
)

var (
	_ index.Store  = (*Postgres)(nil)
	_ index.Store  = (*SQLite)(nil)
	_ ingest.Store = (*Postgres)(nil)
	_ ingest.Store = (*SQLite)(nil)
)

type testStore interface {
	index.Store
	ingest.Store
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f(v float64) *float64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseStore runs the same behavior checks against any backend.
func exerciseStore(t *testing.T, s testStore) {
	ctx := context.Background()
	d1, d2 := date("2024-01-02"), date("2024-01-03")

	for i, sym := range []string{"AAA", "BBB", "CCC", "DDD"} {
		require.NoError(t, s.InsertStock(ctx, ingest.Stock{Symbol: sym, Name: sym + " Corp"}))
		require.NoError(t, s.InsertBars(ctx, []ingest.Bar{
			{Symbol: sym, Date: d1, Close: float64(10 + i), MarketCap: float64(100 * (4 - i))},
		}))
	}
	// ties on market cap fall back to symbol order
	require.NoError(t, s.InsertBars(ctx, []ingest.Bar{
		{Symbol: "CCC", Date: d2, Close: 1, MarketCap: 50},
		{Symbol: "BBB", Date: d2, Close: 1, MarketCap: 50},
	}))

	t.Run("metadata and bars are insert-if-absent", func(t *testing.T) {
		require.NoError(t, s.InsertStock(ctx, ingest.Stock{Symbol: "AAA", Name: "Renamed"}))
		require.NoError(t, s.InsertBars(ctx, []ingest.Bar{{Symbol: "AAA", Date: d1, Close: 999, MarketCap: 1}}))

		rows, err := s.TopByMarketCap(ctx, d1, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "AAA", rows[0].Symbol)
		assert.Equal(t, "AAA Corp", rows[0].Name)
		assert.Equal(t, 10.0, *rows[0].Price)
		assert.Equal(t, 400.0, *rows[0].MarketCap)
	})

	t.Run("top by market cap", func(t *testing.T) {
		rows, err := s.TopByMarketCap(ctx, d1, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAA", "BBB", "CCC"}, symbolsOf(rows))

		rows, err = s.TopByMarketCap(ctx, d2, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"BBB", "CCC"}, symbolsOf(rows))

		rows, err = s.TopByMarketCap(ctx, date("2024-01-04"), 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("save day upserts and prunes", func(t *testing.T) {
		perf := index.Performance{Date: d1, IndexValue: f(12.5), CumulativeReturn: f(1)}
		require.NoError(t, s.SaveDay(ctx, perf, constituents(d1, "AAA", "BBB", "CCC")))

		perf2 := index.Performance{Date: d2, IndexValue: f(13), DailyReturn: f(0.04), CumulativeReturn: f(1.04)}
		require.NoError(t, s.SaveDay(ctx, perf2, constituents(d2, "BBB", "CCC")))

		// rebuild d1 with a different membership
		require.NoError(t, s.SaveDay(ctx, perf, constituents(d1, "AAA", "DDD")))

		symbols, err := s.SnapshotSymbols(ctx, d1)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAA", "DDD"}, symbols)

		snapshot, err := s.Snapshot(ctx, d1)
		require.NoError(t, err)
		require.Len(t, snapshot, 2)
		assert.Equal(t, "DDD Corp", snapshot[1].Name)
		assert.Equal(t, 0.5, snapshot[0].Weight)
		assert.True(t, snapshot[0].Date.Equal(d1))

		got, err := s.PerformanceRange(ctx, d1, d2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Date.Equal(d1))
		assert.Nil(t, got[0].DailyReturn)
		assert.Equal(t, 12.5, *got[0].IndexValue)
		assert.Equal(t, 0.04, *got[1].DailyReturn)
		assert.Equal(t, 1.04, *got[1].CumulativeReturn)

		got, err = s.PerformanceRange(ctx, d2, d2)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		symbols, err := s.SnapshotSymbols(ctx, date("2024-01-05"))
		require.NoError(t, err)
		assert.Empty(t, symbols)
	})

	t.Run("non-finite values survive as null or infinity", func(t *testing.T) {
		d := date("2024-01-08")
		perf := index.Performance{Date: d, IndexValue: f(0), DailyReturn: f(math.Inf(1)), CumulativeReturn: f(math.Inf(1))}
		require.NoError(t, s.SaveDay(ctx, perf, constituents(d, "AAA")))

		got, err := s.PerformanceRange(ctx, d, d)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].DailyReturn)
		assert.True(t, math.IsInf(*got[0].DailyReturn, 1))
	})
}

func constituents(d time.Time, symbols ...string) []index.Constituent {
	out := make([]index.Constituent, len(symbols))
	for i, s := range symbols {
		out[i] = index.Constituent{Date: d, Symbol: s, Weight: 1 / float64(len(symbols))}
	}
	return out
}

func symbolsOf(rows []index.Observation) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}
