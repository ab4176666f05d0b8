package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/configuration"
)

func TestHealthStatus_EmptyMonitorIsHealthy(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	status := m.HealthStatus()
	assert.Equal(t, HealthHealthy, status.Status)
	assert.Empty(t, status.CriticalIssues)

	require.Len(t, status.Components, 3)
	for name, component := range status.Components {
		assert.Equal(t, HealthHealthy, component.Status, "component %s", name)
	}
}

func TestHealthStatus_HighErrorRateIsUnhealthy(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	m.RecordToolOperation("read", time.Millisecond, true, "")
	m.RecordToolOperation("read", time.Millisecond, false, "boom")
	m.RecordToolOperation("read", time.Millisecond, false, "boom")

	status := m.HealthStatus()
	assert.Equal(t, HealthUnhealthy, status.Status)

	ops := status.Components[ComponentToolOperations]
	assert.Equal(t, HealthUnhealthy, ops.Status)
	assert.InDelta(t, 2.0/3.0, ops.Value, 0.001)

	require.Len(t, status.CriticalIssues, 1)
	assert.Contains(t, status.CriticalIssues[0], ComponentToolOperations)
}

func TestHealthStatus_ModerateErrorRateIsDegraded(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	// 7 failures out of 100: above the 5% warning line, below the 10%
	// critical line.
	for i := 0; i < 100; i++ {
		errMsg := ""
		success := i >= 7
		if !success {
			errMsg = "boom"
		}
		m.RecordToolOperation("read", time.Millisecond, success, errMsg)
	}

	status := m.HealthStatus()
	assert.Equal(t, HealthDegraded, status.Status)
	assert.Equal(t, HealthDegraded, status.Components[ComponentToolOperations].Status)
	assert.Empty(t, status.CriticalIssues)
}

func TestHealthStatus_SlowResponsesDegradeThenUnhealthy(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})
	m.RecordPerformanceMetric("query", 1500*time.Millisecond)
	assert.Equal(t, HealthDegraded, m.HealthStatus().Components[ComponentResponseTimes].Status)

	m2 := testMonitor(configuration.MonitoringConfig{})
	m2.RecordPerformanceMetric("query", 5*time.Second)
	assert.Equal(t, HealthUnhealthy, m2.HealthStatus().Components[ComponentResponseTimes].Status)
}

func TestHealthStatus_UnhealthyTakesPrecedence(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	// Degraded latency plus an unhealthy error rate: overall is unhealthy.
	m.RecordPerformanceMetric("query", 1500*time.Millisecond)
	m.RecordToolOperation("read", time.Millisecond, false, "boom")

	status := m.HealthStatus()
	assert.Equal(t, HealthDegraded, status.Components[ComponentResponseTimes].Status)
	assert.Equal(t, HealthUnhealthy, status.Components[ComponentToolOperations].Status)
	assert.Equal(t, HealthUnhealthy, status.Status)
}

func TestHealthStatus_WindowExcludesOldFailures(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{HealthWindow: time.Minute})

	now := time.Now()
	m.recordToolOperationAt("read", time.Millisecond, false, "stale", now.Add(-2*time.Minute))
	m.recordToolOperationAt("read", time.Millisecond, true, "", now)

	status := m.HealthStatus()
	assert.Equal(t, HealthHealthy, status.Components[ComponentToolOperations].Status)
	assert.Zero(t, status.Components[ComponentToolOperations].Value)
}

func TestClassify_ThresholdsAreStrict(t *testing.T) {
	assert.Equal(t, HealthHealthy, classify(0.05, 0.05, 0.10, "").Status)
	assert.Equal(t, HealthDegraded, classify(0.051, 0.05, 0.10, "").Status)
	assert.Equal(t, HealthDegraded, classify(0.10, 0.05, 0.10, "").Status)
	assert.Equal(t, HealthUnhealthy, classify(0.101, 0.05, 0.10, "").Status)
}

func TestRunHealthCheck_PublishesEvent(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{})

	var events []Event
	defer m.Subscribe(func(e Event) { events = append(events, e) })()

	status := m.RunHealthCheck()

	require.Len(t, events, 1)
	assert.Equal(t, EventHealthCheck, events[0].Kind)
	require.NotNil(t, events[0].Health)
	assert.Equal(t, status.Status, events[0].Health.Status)
}
