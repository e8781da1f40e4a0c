package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	decisions    *prometheus.CounterVec
	fallbacks    prometheus.Counter
	decisionTime *prometheus.HistogramVec
}

// NewMetrics registers the strategy metrics on reg. A nil *Metrics is
// valid and records nothing.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectum",
			Subsystem: "strategy",
			Name:      "decisions_total",
			Help:      "Moves chosen, by the tier that chose them.",
		}, []string{"tier"}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "connectum",
			Subsystem: "strategy",
			Name:      "exact_fallbacks_total",
			Help:      "Exact-tier decisions answered by the hard tier instead.",
		}),
		decisionTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "connectum",
			Subsystem: "strategy",
			Name:      "decision_seconds",
			Help:      "Time to choose a move, by requested tier.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"tier"}),
	}
}

func (m *Metrics) decided(t Tier, seconds float64) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(t)).Inc()
	m.decisionTime.WithLabelValues(string(t)).Observe(seconds)
}

func (m *Metrics) fellBack() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
