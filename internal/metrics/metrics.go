package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records upload lifecycle counters. A nil *Metrics is a no-op.
type Metrics struct {
	ingests     *prometheus.CounterVec
	derivatives *prometheus.CounterVec
	urlCache    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	deletions   *prometheus.CounterVec
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the recorder registered on the default Prometheus registry.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a recorder on reg; tests pass their own registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ingests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploads",
			Name:      "ingest_total",
			Help:      "Ingestion attempts by outcome",
		}, []string{"result"}),
		derivatives: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploads",
			Name:      "derivative_total",
			Help:      "Derivative generation attempts by phase and outcome",
		}, []string{"phase", "result"}),
		urlCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploads",
			Name:      "url_cache_lookup_total",
			Help:      "URL cache lookups by outcome",
		}, []string{"result"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploads",
			Name:      "resolve_total",
			Help:      "URL resolutions by outcome kind",
		}, []string{"result"}),
		deletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploads",
			Name:      "delete_total",
			Help:      "Upload records deleted by outcome",
		}, []string{"result"}),
	}
}

func (m *Metrics) Ingest(result string) {
	if m != nil {
		m.ingests.WithLabelValues(result).Inc()
	}
}

// Derivative records one resize; phase is "ingest" or "resolve".
func (m *Metrics) Derivative(phase, result string) {
	if m != nil {
		m.derivatives.WithLabelValues(phase, result).Inc()
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.urlCache.WithLabelValues("hit").Inc()
		return
	}
	m.urlCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) Resolve(result string) {
	if m != nil {
		m.resolutions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Delete(result string) {
	if m != nil {
		m.deletions.WithLabelValues(result).Inc()
	}
}
