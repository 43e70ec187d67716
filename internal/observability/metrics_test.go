package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Usable(t *testing.T) {
	m := NewMetricsForTesting()

	m.Runs.WithLabelValues("success").Inc()
	m.Runs.WithLabelValues("success").Inc()
	m.RegionErrors.Inc()
	m.MaskApplied.Set(1)
	m.ArtifactBytes.WithLabelValues("compressed").Set(1024)
	m.StageDuration.WithLabelValues("generate").Observe(0.2)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Runs.WithLabelValues("success")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RegionErrors), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MaskApplied), 1e-9)
	assert.InDelta(t, 1024, testutil.ToFloat64(m.ArtifactBytes.WithLabelValues("compressed")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestNewMetricsForTesting_Registrable(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()

	require.NoError(t, reg.Register(m.PipelineRunning))
	require.NoError(t, reg.Register(m.Runs))
	require.NoError(t, reg.Register(m.PublishErrors))

	m.PipelineRunning.Set(1)
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "synthmet_pipeline_running")
}
