package stm

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// runtimeConfig is the package-level runtime shared by Atomically,
// AtomicallyWithControl, DetAtomically, and the DTM coordinator.
type runtimeConfig struct {
	logger  *logrus.Logger
	metrics *metricsSet
}

func defaultConfig() *runtimeConfig {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &runtimeConfig{
		logger:  l,
		metrics: newMetrics(prometheus.NewRegistry()),
	}
}

var (
	cfgMu sync.RWMutex
	cfg   = defaultConfig()
)

// Option configures the package-level runtime. See WithLogger and
// WithMetrics.
type Option func(*runtimeConfig)

// WithLogger routes the runtime's lifecycle tracing — commit attempts,
// validation failures, retry parks, wake-ups, DTM round transitions —
// through l instead of discarding it.
func WithLogger(l *logrus.Logger) Option {
	return func(c *runtimeConfig) { c.logger = l }
}

// WithMetrics registers the runtime's Prometheus collectors against reg
// instead of a private, unregistered registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *runtimeConfig) { c.metrics = newMetrics(reg) }
}

// Configure applies opts to the package-level runtime configuration. Call
// it before spawning any transactions; it is not safe to call concurrently
// with Atomically, AtomicallyWithControl, or DetAtomically.
func Configure(opts ...Option) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	for _, opt := range opts {
		opt(cfg)
	}
}

func current() *runtimeConfig {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}
