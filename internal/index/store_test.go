package index

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu           sync.Mutex
	observations map[string][]Observation
	performance  map[string]Performance
	composition  map[string]map[string]Constituent
	topCalls     int
	failSave     error
}

func newMemStore() *memStore {
	return &memStore{
		observations: map[string][]Observation{},
		performance:  map[string]Performance{},
		composition:  map[string]map[string]Constituent{},
	}
}

func ptr(f float64) *float64 { return &f }

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// addDay stores n observations on date, all priced at price, with market
// caps descending from symbol S000.
func (m *memStore) addDay(date string, n int, price float64) {
	for i := 0; i < n; i++ {
		m.add(date, fmt.Sprintf("S%03d", i), ptr(price), ptr(float64(1_000_000-i)))
	}
}

func (m *memStore) add(date, symbol string, price, marketCap *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[date] = append(m.observations[date], Observation{
		Symbol: symbol, Name: symbol + " Inc", Price: price, MarketCap: marketCap,
	})
}

func (m *memStore) setComposition(date string, symbols ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]Constituent{}
	for _, symbol := range symbols {
		set[symbol] = Constituent{Date: day(date), Symbol: symbol, Weight: 1 / float64(len(symbols))}
	}
	m.composition[date] = set
}

func capOf(o Observation) float64 {
	if o.MarketCap == nil {
		return 0
	}
	return *o.MarketCap
}

func (m *memStore) TopByMarketCap(_ context.Context, d time.Time, n int) ([]Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topCalls++
	rows := slices.Clone(m.observations[sanitize.Date(d)])
	slices.SortFunc(rows, func(a, b Observation) int {
		if c := cmp.Compare(capOf(b), capOf(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (m *memStore) SaveDay(_ context.Context, perf Performance, constituents []Constituent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	key := sanitize.Date(perf.Date)
	m.performance[key] = perf
	set := map[string]Constituent{}
	for _, c := range constituents {
		set[c.Symbol] = c
	}
	m.composition[key] = set
	return nil
}

func (m *memStore) PerformanceRange(_ context.Context, from, to time.Time) ([]Performance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []Performance
	for _, p := range m.performance {
		if !p.Date.Before(from) && !p.Date.After(to) {
			rows = append(rows, p)
		}
	}
	slices.SortFunc(rows, func(a, b Performance) int { return a.Date.Compare(b.Date) })
	return rows, nil
}

func (m *memStore) Snapshot(_ context.Context, d time.Time) ([]Constituent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []Constituent
	for _, c := range m.composition[sanitize.Date(d)] {
		rows = append(rows, c)
	}
	slices.SortFunc(rows, func(a, b Constituent) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return rows, nil
}

func (m *memStore) SnapshotSymbols(ctx context.Context, d time.Time) ([]string, error) {
	rows, _ := m.Snapshot(ctx, d)
	symbols := make([]string, len(rows))
	for i, c := range rows {
		symbols[i] = c.Symbol
	}
	return symbols, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gatedStore blocks Snapshot until release is closed and then honours the
// context it was called with, like a database driver would.
type gatedStore struct {
	*memStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(m *memStore) *gatedStore {
	return &gatedStore{memStore: m, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Snapshot(ctx context.Context, d time.Time) ([]Constituent, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.memStore.Snapshot(ctx, d)
}
