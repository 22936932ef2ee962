// Package metrics exposes verification counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"n3proof/internal/proof"
)

// Metrics holds the verification collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	verifications *prometheus.CounterVec
	derived       prometheus.Counter
	duration      prometheus.Histogram
	kbSize        prometheus.Gauge
}

// New registers the collectors in reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "n3proof",
				Name:      "verifications_total",
				Help:      "proof verifications by verdict and error kind",
			},
			[]string{"verdict", "kind"},
		),
		derived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "n3proof",
			Name:      "derived_triples_total",
			Help:      "triples inserted into knowledge bases by successful rule applications",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "n3proof",
			Name:      "verification_duration_seconds",
			Help:      "wall time of one proof verification",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		kbSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "n3proof",
			Name:      "last_kb_triples",
			Help:      "knowledge base size at the end of the most recent verification",
		}),
	}
	reg.MustRegister(m.verifications, m.derived, m.duration, m.kbSize)
	return m
}

// Observe records one verification report.
func (m *Metrics) Observe(report *proof.Report) {
	if report == nil {
		return
	}
	kind := report.ErrorKind()
	if kind == "" {
		kind = "none"
	}
	m.verifications.WithLabelValues(report.Verdict(), kind).Inc()
	m.derived.Add(float64(len(report.Derived())))
	m.duration.Observe(report.Duration.Seconds())
	m.kbSize.Set(float64(report.KBAfter))
}

// Registry returns the registry the collectors are registered in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
