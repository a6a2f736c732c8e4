package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordToolCall_IncrementsCountersAndHistogram(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordToolCall("add_message", "success", 0.05, "")
	m.RecordToolCall("add_message", "error", 0.01, "VALIDATION_ERROR")

	assert.Equal(t, float64(1), counterValue(t, m.ToolCallsTotal.WithLabelValues("add_message", "success")))
	assert.Equal(t, float64(1), counterValue(t, m.ToolCallsTotal.WithLabelValues("add_message", "error")))
	assert.Equal(t, float64(1), counterValue(t, m.ToolErrorsTotal.WithLabelValues("add_message", "VALIDATION_ERROR")))
}

func TestCollect_ReturnsPopulatedSnapshot(t *testing.T) {
	snap := Collect()
	assert.False(t, snap.CollectedAt.IsZero())
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}
