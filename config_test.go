package stm

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigureWithLoggerReceivesCommitTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	reg := prometheus.NewRegistry()
	Configure(WithLogger(logger), WithMetrics(reg))
	t.Cleanup(func() { Configure(WithLogger(defaultConfig().logger), WithMetrics(prometheus.NewRegistry())) })

	v := NewTVar(0)
	Atomically(func(tx *Transaction) (struct{}, error) {
		return struct{}{}, Write(tx, v, 1)
	})

	require.Contains(t, buf.String(), "committed")
}

func TestConfigureWithMetricsCountsCommits(t *testing.T) {
	reg := prometheus.NewRegistry()
	Configure(WithMetrics(reg), WithLogger(defaultConfig().logger))
	t.Cleanup(func() { Configure(WithMetrics(prometheus.NewRegistry())) })

	v := NewTVar(0)
	Atomically(func(tx *Transaction) (struct{}, error) {
		return struct{}{}, Write(tx, v, 1)
	})

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "gostm_commits_total" {
			found = true
			require.GreaterOrEqual(t, mf.GetMetric()[0].GetCounter().GetValue(), float64(1))
		}
	}
	require.True(t, found)
}
