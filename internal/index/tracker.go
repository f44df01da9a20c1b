package index

import (
	"context"
	"fmt"
	"slices"

	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// Changes reports membership turnover between consecutive business days in
// [start, end]. It always reads the store and only writes the result to the
// cache under changes:<start>:<end>.
func (s *Service) Changes(ctx context.Context, start, end string) ([]ChangeRecord, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	changes := make([]ChangeRecord, 0)
	prev := map[string]struct{}{}

	for _, day := range BusinessDays(from, to) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbols, err := s.store.SnapshotSymbols(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("composition symbols for %s: %w", sanitize.Date(day), err)
		}

		cur := make(map[string]struct{}, len(symbols))
		for _, symbol := range symbols {
			cur[symbol] = struct{}{}
		}

		entered, exited := diffSymbols(prev, cur)
		if len(entered) > 0 || len(exited) > 0 {
			changes = append(changes, ChangeRecord{
				Date:    sanitize.Date(day),
				Entered: entered,
				Exited:  exited,
			})
		}
		prev = cur
	}

	if err := s.writeCache(ctx, Key(KindChanges, start, end), changes); err != nil {
		return nil, fmt.Errorf("cache changes: %w", err)
	}
	return changes, nil
}

// diffSymbols returns cur−prev and prev−cur, sorted. Both are non-nil.
func diffSymbols(prev, cur map[string]struct{}) (entered, exited []string) {
	entered, exited = []string{}, []string{}
	for symbol := range cur {
		if _, ok := prev[symbol]; !ok {
			entered = append(entered, symbol)
		}
	}
	for symbol := range prev {
		if _, ok := cur[symbol]; !ok {
			exited = append(exited, symbol)
		}
	}
	slices.Sort(entered)
	slices.Sort(exited)
	return entered, exited
}
