// Package metrics exposes replay counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backtest"

// Metrics records matching activity. It satisfies core.Recorder.
type Metrics struct {
	registry   *prometheus.Registry
	fills      *prometheus.CounterVec
	rejections *prometheus.CounterVec
	ticks      prometheus.Counter
	runs       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_total",
			Help:      "Strategy fills by symbol and kind.",
		}, []string{"symbol", "kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_rejections_total",
			Help:      "Fills skipped because they would breach a position limit.",
		}, []string{"symbol"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timestamps_processed_total",
			Help:      "Timestamps replayed.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Backtest runs by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.fills, m.rejections, m.ticks, m.runs)
	return m
}

func (m *Metrics) Fill(symbol string, aggressive bool) {
	kind := "passive"
	if aggressive {
		kind = "aggressive"
	}
	m.fills.WithLabelValues(symbol, kind).Inc()
}

func (m *Metrics) LimitRejected(symbol string) {
	m.rejections.WithLabelValues(symbol).Inc()
}

func (m *Metrics) TickProcessed() {
	m.ticks.Inc()
}

// RunFinished counts a completed run; err marks it failed.
func (m *Metrics) RunFinished(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
