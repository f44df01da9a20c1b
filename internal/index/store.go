package index

import (
	"context"
	"time"
)

// Observation is a stock's price and market cap on one day. Either value
// may be missing.
type Observation struct {
	Symbol    string
	Name      string
	Price     *float64
	MarketCap *float64
}

// Performance is a persisted index_performance row.
type Performance struct {
	Date             time.Time
	IndexValue       *float64
	DailyReturn      *float64
	CumulativeReturn *float64
}

// Constituent is a persisted index_composition row joined with the stock name.
type Constituent struct {
	Date   time.Time
	Symbol string
	Name   string
	Weight float64
}

// Store is the persistence the index needs.
type Store interface {
	// TopByMarketCap returns at most n observations for day ordered by
	// market cap descending, then symbol ascending.
	TopByMarketCap(ctx context.Context, day time.Time, n int) ([]Observation, error)
	// SaveDay upserts the performance row and constituents of one day and
	// removes constituents of that day that are no longer selected. The
	// writes commit together.
	SaveDay(ctx context.Context, perf Performance, constituents []Constituent) error
	PerformanceRange(ctx context.Context, from, to time.Time) ([]Performance, error)
	Snapshot(ctx context.Context, day time.Time) ([]Constituent, error)
	SnapshotSymbols(ctx context.Context, day time.Time) ([]string, error)
}

// Cache holds serialized query results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
