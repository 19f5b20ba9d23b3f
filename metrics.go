package stm

import "github.com/prometheus/client_golang/prometheus"

// metricsSet is the runtime's Prometheus instrumentation. It is registered
// against a private registry by default (see defaultConfig), so importing
// this package never surprises a caller by touching the global default
// registry; use WithMetrics to point it at one that is actually scraped.
type metricsSet struct {
	commits         prometheus.Counter
	retries         prometheus.Counter
	activeWaiters   prometheus.Gauge
	dtmRoundSeconds prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gostm_commits_total",
			Help: "Transactions that committed successfully.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gostm_retries_total",
			Help: "Transaction attempts that retried or failed commit validation.",
		}),
		activeWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gostm_active_waiters",
			Help: "Goroutines currently blocked waiting for a TVar to change.",
		}),
		dtmRoundSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "gostm_dtm_round_duration_seconds",
			Help: "Wall-clock duration of one deterministic-coordinator round.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.commits, m.retries, m.activeWaiters, m.dtmRoundSeconds)
	}
	return m
}
