package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	lookups       *prometheus.CounterVec
	backendErrors prometheus.Counter
	backendTime   prometheus.Histogram
	entries       prometheus.Gauge
}

// NewMetrics registers the cache metrics on reg. A nil *Metrics is valid
// and records nothing.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectum",
			Subsystem: "position_cache",
			Name:      "lookups_total",
			Help:      "Position cache lookups by result (direct, mirrored, miss).",
		}, []string{"result"}),
		backendErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "connectum",
			Subsystem: "position_cache",
			Name:      "backend_errors_total",
			Help:      "Exact backend calls that failed or returned a malformed vector.",
		}),
		backendTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "connectum",
			Subsystem: "position_cache",
			Name:      "backend_seconds",
			Help:      "Time spent in the exact backend per cache miss.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "connectum",
			Subsystem: "position_cache",
			Name:      "entries",
			Help:      "Entries in the position cache.",
		}),
	}
}

func (m *Metrics) lookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) backendError() {
	if m == nil {
		return
	}
	m.backendErrors.Inc()
}

func (m *Metrics) observeBackend(seconds float64) {
	if m == nil {
		return
	}
	m.backendTime.Observe(seconds)
}

func (m *Metrics) setEntries(n int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(n))
}
