package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/configuration"
)

func TestAlert_FiresOnThresholdCrossing(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	var firings []AlertFiring
	id := m.SetupAlert(AlertCondition{
		Metric:    MetricToolErrorRate,
		Threshold: 0.5,
		Operator:  OpGreaterThan,
	}, func(f AlertFiring) { firings = append(firings, f) })
	require.NotEmpty(t, id)

	// Another tool's successes must not dilute the per-tool rate.
	m.RecordToolOperation("write", time.Millisecond, true, "")
	m.RecordToolOperation("write", time.Millisecond, true, "")

	m.RecordToolOperation("read", time.Millisecond, true, "")
	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	assert.Empty(t, firings, "1/2 failures is not strictly above 0.5")

	m.RecordToolOperation("read", time.Millisecond, false, "boom")

	require.Len(t, firings, 1)
	assert.Equal(t, id, firings[0].ID)
	assert.Equal(t, "read", firings[0].Tool)
	assert.InDelta(t, 2.0/3.0, firings[0].CurrentValue, 0.001)

	// Default cooldown keeps the alert silent on further failures.
	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	assert.Len(t, firings, 1)
}

func TestAlert_CooldownGatesRefiring(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	fired := 0
	m.SetupAlert(AlertCondition{
		Metric:    MetricToolErrorRate,
		Tool:      "read",
		Threshold: 0.5,
		Operator:  OpGreaterThan,
		Cooldown:  time.Second,
	}, func(AlertFiring) { fired++ })

	base := time.Now()
	m.recordToolOperationAt("read", time.Millisecond, false, "boom", base)
	assert.Equal(t, 1, fired)

	// Still inside the cooldown: threshold crossed but no firing.
	m.recordToolOperationAt("read", time.Millisecond, false, "boom", base.Add(500*time.Millisecond))
	assert.Equal(t, 1, fired)

	// Cooldown elapsed: the alert re-fires.
	m.recordToolOperationAt("read", time.Millisecond, false, "boom", base.Add(1100*time.Millisecond))
	assert.Equal(t, 2, fired)
}

func TestAlert_ToolScopedConditionIgnoresOtherTools(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	fired := 0
	m.SetupAlert(AlertCondition{
		Metric:    MetricToolErrorRate,
		Tool:      "read",
		Threshold: 0.5,
		Operator:  OpGreaterThan,
	}, func(AlertFiring) { fired++ })

	m.RecordToolOperation("write", time.Millisecond, false, "boom")
	m.RecordToolOperation("write", time.Millisecond, false, "boom")
	assert.Zero(t, fired)

	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	assert.Equal(t, 1, fired)
}

func TestAlert_AverageLatencyObservedOnPerformanceMetrics(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	var firings []AlertFiring
	m.SetupAlert(AlertCondition{
		Metric:    MetricAverageLatency,
		Threshold: 500,
		Operator:  OpGreaterOrEqual,
	}, func(f AlertFiring) { firings = append(firings, f) })

	// Tool operations never produce a latency value for this metric.
	m.RecordToolOperation("read", 10*time.Second, false, "boom")
	assert.Empty(t, firings)

	m.RecordPerformanceMetric("query", 800*time.Millisecond)
	require.Len(t, firings, 1)
	assert.Equal(t, 800.0, firings[0].CurrentValue)
}

func TestAlert_PublishesEvent(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	m.SetupAlert(AlertCondition{
		Metric:    MetricErrorRate,
		Threshold: 0.5,
		Operator:  OpGreaterOrEqual,
	}, func(AlertFiring) {})

	var alertEvents []Event
	defer m.Subscribe(func(e Event) {
		if e.Kind == EventAlert {
			alertEvents = append(alertEvents, e)
		}
	})()

	m.RecordToolOperation("read", time.Millisecond, false, "boom")

	require.Len(t, alertEvents, 1)
	require.NotNil(t, alertEvents[0].Alert)
	assert.Equal(t, MetricErrorRate, alertEvents[0].Alert.Condition.Metric)
	assert.Equal(t, 1.0, alertEvents[0].Alert.CurrentValue)
}

func TestRemoveAlert(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	fired := 0
	id := m.SetupAlert(AlertCondition{
		Metric:    MetricErrorRate,
		Threshold: 0.5,
		Operator:  OpGreaterOrEqual,
	}, func(AlertFiring) { fired++ })

	assert.True(t, m.RemoveAlert(id))
	assert.False(t, m.RemoveAlert(id))
	assert.False(t, m.RemoveAlert("no-such-alert"))

	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	assert.Zero(t, fired)
}

func TestAlert_PanickingCallbackDoesNotBreakRecording(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	m.SetupAlert(AlertCondition{
		Metric:    MetricErrorRate,
		Threshold: 0.5,
		Operator:  OpGreaterOrEqual,
		Cooldown:  time.Nanosecond,
	}, func(AlertFiring) { panic("listener bug") })

	require.NotPanics(t, func() {
		m.RecordToolOperation("read", time.Millisecond, false, "boom")
		m.RecordToolOperation("read", time.Millisecond, false, "boom")
	})
	assert.Equal(t, 2, m.MetricsSummary().TotalCalls)
}

func TestOperator_Satisfied(t *testing.T) {
	tests := []struct {
		op        Operator
		value     float64
		threshold float64
		want      bool
	}{
		{OpGreaterThan, 1.1, 1.0, true},
		{OpGreaterThan, 1.0, 1.0, false},
		{OpGreaterOrEqual, 1.0, 1.0, true},
		{OpGreaterOrEqual, 0.9, 1.0, false},
		{OpLessThan, 0.9, 1.0, true},
		{OpLessThan, 1.0, 1.0, false},
		{OpLessOrEqual, 1.0, 1.0, true},
		{OpLessOrEqual, 1.1, 1.0, false},
		{OpEqual, 1.0, 1.0, true},
		{OpEqual, 1.1, 1.0, false},
		{Operator("bogus"), 1.0, 1.0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.satisfied(tt.value, tt.threshold),
			"%v %s %v", tt.value, tt.op, tt.threshold)
	}
}
