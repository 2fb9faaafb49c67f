// Package metrics instruments the cluster router's dispatch path with
// Prometheus counters and histograms. Instrumentation is incidental to
// the routing logic: every method here is nil-receiver safe, so a router
// built without metrics enabled pays no cost beyond a nil check.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of counters/histograms the ClusterRouter updates
// while dispatching. A nil *Metrics disables instrumentation entirely.
type Metrics struct {
	redirections     *prometheus.CounterVec
	retriesExhausted prometheus.Counter
	scatterWidth     prometheus.Histogram
}

// New registers and returns a Metrics bound to reg. Pass a nil registry
// to build a disabled instance that no-ops every call.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		redirections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radixcluster",
			Name:      "redirections_total",
			Help:      "Cluster redirection replies observed by kind (moved, ask, tryagain, clusterdown).",
		}, []string{"kind"}),
		retriesExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radixcluster",
			Name:      "retry_budget_exhausted_total",
			Help:      "Dispatch chains that surfaced an error after exhausting their retry budget.",
		}),
		scatterWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radixcluster",
			Name:      "scatter_fanout_width",
			Help:      "Number of sub-requests issued per scatter/gather dispatch.",
			Buckets:   prometheus.LinearBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(m.redirections, m.retriesExhausted, m.scatterWidth)
	return m
}

// Redirection records one redirection reply of the given kind.
func (m *Metrics) Redirection(kind string) {
	if m == nil {
		return
	}
	m.redirections.WithLabelValues(kind).Inc()
}

// RetryBudgetExhausted records a dispatch chain that gave up after
// exhausting its retry budget.
func (m *Metrics) RetryBudgetExhausted() {
	if m == nil {
		return
	}
	m.retriesExhausted.Inc()
}

// ScatterWidth records the fan-out width of one scatter/gather dispatch.
func (m *Metrics) ScatterWidth(n int) {
	if m == nil {
		return
	}
	m.scatterWidth.Observe(float64(n))
}
