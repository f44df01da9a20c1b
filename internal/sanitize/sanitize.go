// Package sanitize makes values safe for JSON serialization: non-finite
// floats become null and dates become ISO-8601 calendar-date strings.
package sanitize

import (
	"math"
	"time"
)

// DateLayout is the canonical calendar-date format used in payloads and keys.
const DateLayout = "2006-01-02"

// Float returns nil for NaN and ±Inf, otherwise a pointer to f.
func Float(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// FloatPtr is Float for an optional value.
func FloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return Float(*f)
}

// Date formats t as a calendar date.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Value walks maps and slices recursively, replacing non-finite floats with
// nil and time values with calendar-date strings.
func Value(v any) any {
	switch x := v.(type) {
	case float64:
		if f := Float(x); f != nil {
			return *f
		}
		return nil
	case float32:
		return Value(float64(x))
	case *float64:
		if f := FloatPtr(x); f != nil {
			return *f
		}
		return nil
	case time.Time:
		return Date(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return Date(*x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Value(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Value(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Value(item)
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Value(item)
		}
		return out
	default:
		return v
	}
}
