package refdata

import (
	"time"

	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records cache and provider activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "refdata",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Accessor calls served from the in-memory cache.",
			},
			[]string{"kind"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "refdata",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Accessor calls that had to fetch from the provider.",
			},
			[]string{"kind"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "refdata",
				Subsystem: "provider",
				Name:      "fetches_total",
				Help:      "Provider fetches by outcome.",
			},
			[]string{"kind", "provider", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "refdata",
				Subsystem: "provider",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of provider fetches.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.fetches, m.fetchDuration)
	return m
}

func (m *Metrics) hit(kind types.Kind) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) miss(kind types.Kind) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) fetched(kind types.Kind, provider string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(string(kind), provider, result).Inc()
	m.fetchDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
}
