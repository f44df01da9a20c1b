package index

import (
	"context"
	"fmt"
)

// Performance returns persisted index values in [start, end] ordered by
// date, serving index:<start>:<end> from the cache when present.
func (s *Service) Performance(ctx context.Context, start, end string) ([]PerformanceRecord, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	return cached(ctx, s, KindIndex, Key(KindIndex, start, end), func(ctx context.Context) ([]PerformanceRecord, error) {
		rows, err := s.store.PerformanceRange(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("read performance: %w", err)
		}
		records := make([]PerformanceRecord, len(rows))
		for i, row := range rows {
			records[i] = newPerformanceRecord(row)
		}
		return records, nil
	})
}

// Composition returns the constituents of the index on date, serving
// composition:<date> from the cache when present.
func (s *Service) Composition(ctx context.Context, date string) ([]CompositionRecord, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	return cached(ctx, s, KindComposition, Key(KindComposition, date), func(ctx context.Context) ([]CompositionRecord, error) {
		rows, err := s.store.Snapshot(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("read composition: %w", err)
		}
		records := make([]CompositionRecord, len(rows))
		for i, row := range rows {
			records[i] = newCompositionRecord(row)
		}
		return records, nil
	})
}

// cached serves key from the cache, or loads, caches and returns it.
// Concurrent misses on the same key share one load. The shared load is
// detached from any one caller's cancellation; each caller still stops
// waiting when its own ctx is done.
func cached[T any](ctx context.Context, s *Service, kind, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var out []T
	hit, err := s.readCache(ctx, kind, key, &out)
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	if hit {
		if out == nil {
			out = []T{}
		}
		return out, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		records, err := load(shared)
		if err != nil {
			return nil, err
		}
		if err := s.writeCache(shared, key, records); err != nil {
			return nil, fmt.Errorf("cache set %s: %w", key, err)
		}
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}
