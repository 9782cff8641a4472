package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectionMetrics exports the state of the loaded quote collection to
// Prometheus. A nil *CollectionMetrics is valid and records nothing.
type CollectionMetrics struct {
	loaded       prometheus.Gauge
	dropped      prometheus.Gauge
	loadDuration prometheus.Histogram
	loads        *prometheus.CounterVec
}

// NewCollectionMetrics registers the collection metrics with reg.
func NewCollectionMetrics(reg prometheus.Registerer) (*CollectionMetrics, error) {
	m := &CollectionMetrics{
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quote_gallery",
			Name:      "quotes_loaded",
			Help:      "Quotes kept by the last successful load.",
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quote_gallery",
			Name:      "quotes_dropped",
			Help:      "Records dropped as incomplete by the last successful load.",
		}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quote_gallery",
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching and normalising the collection.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote_gallery",
			Name:      "loads_total",
			Help:      "Collection loads by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.loaded, m.dropped, m.loadDuration, m.loads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveLoad records a successful load.
func (m *CollectionMetrics) ObserveLoad(loaded, dropped int, took time.Duration) {
	if m == nil {
		return
	}

	m.loaded.Set(float64(loaded))
	m.dropped.Set(float64(dropped))
	m.loadDuration.Observe(took.Seconds())
	m.loads.WithLabelValues("success").Inc()
}

// ObserveFailure records a failed load. Gauges keep their last values.
func (m *CollectionMetrics) ObserveFailure(took time.Duration) {
	if m == nil {
		return
	}

	m.loadDuration.Observe(took.Seconds())
	m.loads.WithLabelValues("failure").Inc()
}
