// Package metrics exposes prometheus collectors for index builds and the
// read cache. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "topcap"

type Metrics struct {
	CacheRequests *prometheus.CounterVec
	BuildDays     *prometheus.CounterVec
	ZeroFilled    prometheus.Counter
	BuildDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Read cache lookups by query kind and result.",
		}, []string{"kind", "result"}),
		BuildDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_days_total",
			Help:      "Business days processed by index builds.",
		}, []string{"outcome"}),
		ZeroFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_zero_filled_values_total",
			Help:      "Missing prices or market caps replaced with zero during builds.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of index builds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(m.CacheRequests, m.BuildDays, m.ZeroFilled, m.BuildDuration)
	return m
}

func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(kind, "miss").Inc()
}

// DayIncluded records a built day and how many values it zero-filled.
func (m *Metrics) DayIncluded(zeroFilled int) {
	if m == nil {
		return
	}
	m.BuildDays.WithLabelValues("included").Inc()
	m.ZeroFilled.Add(float64(zeroFilled))
}

func (m *Metrics) DaySkipped() {
	if m == nil {
		return
	}
	m.BuildDays.WithLabelValues("skipped").Inc()
}

func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}
