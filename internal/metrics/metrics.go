// Package metrics exposes Prometheus counters for the annotation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelcat"

type Metrics struct {
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	extractFailures *prometheus.CounterVec
	miningSkipped   *prometheus.CounterVec
	factsMined      prometheus.Counter
}

// New registers the pipeline metrics on reg. A nil reg keeps them unregistered,
// which tests use to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Link fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Link fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		extractFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failed_total",
			Help:      "Extraction attempts that produced no value, by shape.",
		}, []string{"shape"}),
		miningSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mining_skipped_total",
			Help:      "Mining attempts skipped because the field was missing or malformed.",
		}, []string{"field"}),
		factsMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_mined_total",
			Help:      "Facts produced by the link miner.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fetchTotal, m.fetchDuration, m.extractFailures, m.miningSkipped, m.factsMined)
	}
	return m
}

// Nop returns unregistered metrics.
func Nop() *Metrics { return New(nil) }

func (m *Metrics) ObserveFetch(ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.fetchTotal.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ExtractionFailed(shape string) { m.extractFailures.WithLabelValues(shape).Inc() }

func (m *Metrics) MiningSkipped(field string) { m.miningSkipped.WithLabelValues(field).Inc() }

func (m *Metrics) FactsMined(n int) { m.factsMined.Add(float64(n)) }
