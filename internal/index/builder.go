package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/arnabmitra/topcap-index/internal/lock"
	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// Build computes the index for every business day in [start, end], persists
// each included day and caches the sequence under index:<start>:<end>.
//
// Days are processed in order because each return depends on the previous
// included day. A day with fewer than Size observations is skipped and does
// not break the chain. Each day commits on its own, so a failed or cancelled
// build leaves the days before it in place.
func (s *Service) Build(ctx context.Context, start, end string) ([]PerformanceRecord, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("start", start),
		slog.String("end", end),
	)

	var lease lock.Lease
	if s.opts.Locker != nil {
		lease, err = s.opts.Locker.Acquire(ctx, BuildLockKey, s.opts.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire build lease: %w", err)
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release build lease", slog.Any("error", err))
			}
		}()
	}

	began := time.Now()
	defer func() { s.metrics.ObserveBuild(time.Since(began)) }()

	records := make([]PerformanceRecord, 0)
	var processed []time.Time
	var prevValue, prevCumulative float64
	first := true

	for _, day := range BusinessDays(from, to) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build stopped after %d days: %w", len(records), err)
		}
		if lease != nil {
			if err := lease.Extend(ctx, s.opts.LockTTL); err != nil {
				return nil, fmt.Errorf("extend build lease before %s: %w", sanitize.Date(day), err)
			}
		}

		rows, err := s.store.TopByMarketCap(ctx, day, s.opts.Size)
		if err != nil {
			return nil, fmt.Errorf("select top %d for %s: %w", s.opts.Size, sanitize.Date(day), err)
		}
		processed = append(processed, day)

		if len(rows) < s.opts.Size {
			s.metrics.DaySkipped()
			logger.Debug("skipping day without enough observations",
				slog.String("date", sanitize.Date(day)), slog.Int("rows", len(rows)))
			continue
		}
		rows = rows[:s.opts.Size]

		indexValue, constituents, quality := computeDay(day, rows)

		cumulative := 1.0
		perf := Performance{Date: day, IndexValue: &indexValue, CumulativeReturn: &cumulative}
		if !first {
			daily := (indexValue - prevValue) / prevValue
			cumulative = (1 + daily) * prevCumulative
			perf.DailyReturn = &daily
		}

		if err := s.store.SaveDay(ctx, perf, constituents); err != nil {
			return nil, fmt.Errorf("save %s: %w", sanitize.Date(day), err)
		}

		if quality.Degraded {
			logger.Warn("zero-filled missing values",
				slog.String("date", sanitize.Date(day)), slog.Int("zero_filled", quality.ZeroFilled))
		}
		s.metrics.DayIncluded(quality.ZeroFilled)

		record := newPerformanceRecord(perf)
		record.Quality = &quality
		records = append(records, record)

		prevValue, prevCumulative, first = indexValue, cumulative, false
	}

	if s.opts.InvalidateOnBuild {
		if err := s.invalidate(ctx, processed); err != nil {
			return nil, err
		}
	}
	if err := s.writeCache(ctx, Key(KindIndex, start, end), withoutQuality(records)); err != nil {
		return nil, fmt.Errorf("cache build result: %w", err)
	}

	logger.Info("index built",
		slog.Int("days", len(processed)),
		slog.Int("included", len(records)),
		slog.Duration("took", time.Since(began)))

	return records, nil
}

// computeDay weights rows equally and sums the weighted prices. Missing or
// non-finite prices and market caps count as zero.
func computeDay(day time.Time, rows []Observation) (float64, []Constituent, DataQuality) {
	weight := 1 / float64(len(rows))
	constituents := make([]Constituent, len(rows))
	var quality DataQuality
	var indexValue float64

	for i, row := range rows {
		price, filled := orZero(row.Price)
		if filled {
			quality.ZeroFilled++
		}
		if _, filled := orZero(row.MarketCap); filled {
			quality.ZeroFilled++
		}
		indexValue += price * weight
		constituents[i] = Constituent{Date: day, Symbol: row.Symbol, Name: row.Name, Weight: weight}
	}
	quality.Degraded = quality.ZeroFilled > 0
	return indexValue, constituents, quality
}

func orZero(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, true
	}
	return *v, false
}

// invalidate drops cached reads a build may have made stale.
func (s *Service) invalidate(ctx context.Context, days []time.Time) error {
	keys := make([]string, len(days))
	for i, day := range days {
		keys[i] = Key(KindComposition, sanitize.Date(day))
	}
	errs := []error{s.cache.Delete(ctx, keys...)}
	for _, kind := range []string{KindIndex, KindChanges} {
		errs = append(errs, s.cache.DeletePrefix(ctx, kind+":"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}
