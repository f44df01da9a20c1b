package index

import (
	"time"

	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

// DataQuality reports how much of a built day was zero-filled.
type DataQuality struct {
	ZeroFilled int  `json:"zero_filled"`
	Degraded   bool `json:"degraded"`
}

// PerformanceRecord is one day of index values. DailyReturn is nil for the
// first day of a build. Quality is only set on records returned by Build.
type PerformanceRecord struct {
	Date             string       `json:"date"`
	IndexValue       *float64     `json:"index_value"`
	DailyReturn      *float64     `json:"daily_return"`
	CumulativeReturn *float64     `json:"cumulative_return"`
	Quality          *DataQuality `json:"quality,omitempty"`
}

// CompositionRecord is one constituent of the index on a date.
type CompositionRecord struct {
	Date   string   `json:"date"`
	Symbol string   `json:"symbol"`
	Name   string   `json:"name,omitempty"`
	Weight *float64 `json:"weight"`
}

// ChangeRecord lists the symbols that joined and left the index on a date.
type ChangeRecord struct {
	Date    string   `json:"date"`
	Entered []string `json:"entered"`
	Exited  []string `json:"exited"`
}

func newPerformanceRecord(p Performance) PerformanceRecord {
	return PerformanceRecord{
		Date:             sanitize.Date(p.Date),
		IndexValue:       sanitize.FloatPtr(p.IndexValue),
		DailyReturn:      sanitize.FloatPtr(p.DailyReturn),
		CumulativeReturn: sanitize.FloatPtr(p.CumulativeReturn),
	}
}

func newCompositionRecord(c Constituent) CompositionRecord {
	return CompositionRecord{
		Date:   sanitize.Date(c.Date),
		Symbol: c.Symbol,
		Name:   c.Name,
		Weight: sanitize.Float(c.Weight),
	}
}

// withoutQuality copies records with Quality cleared, matching what a later
// read of the store produces.
func withoutQuality(records []PerformanceRecord) []PerformanceRecord {
	out := make([]PerformanceRecord, len(records))
	for i, r := range records {
		r.Quality = nil
		out[i] = r
	}
	return out
}

// DateOf parses a record date written by this package.
func DateOf(s string) (time.Time, error) {
	return time.Parse(sanitize.DateLayout, s)
}
