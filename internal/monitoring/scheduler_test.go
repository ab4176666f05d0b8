package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/configuration"
)

func TestScheduler_RunsHealthChecks(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{
		CleanupInterval:     10 * time.Millisecond,
		HealthCheckInterval: 10 * time.Millisecond,
	})

	var mu sync.Mutex
	healthChecks := 0
	defer m.Subscribe(func(e Event) {
		if e.Kind == EventHealthCheck {
			mu.Lock()
			healthChecks++
			mu.Unlock()
		}
	})()

	m.Start()
	time.Sleep(60 * time.Millisecond)
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Positive(t, healthChecks)
}

func TestScheduler_CleanupTickPrunesRetention(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{
		Retention:           time.Hour,
		CleanupInterval:     10 * time.Millisecond,
		HealthCheckInterval: time.Hour,
	})

	m.recordToolOperationAt("read", time.Millisecond, true, "", time.Now().Add(-2*time.Hour))

	m.Start()
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.toolOps)
}

func TestScheduler_LifecycleIsIdempotent(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{
		CleanupInterval:     10 * time.Millisecond,
		HealthCheckInterval: 10 * time.Millisecond,
	})

	// Stop before Start is a no-op.
	m.Stop()

	m.Start()
	m.Start() // second Start is a no-op
	m.Stop()
	m.Stop() // second Stop is a no-op

	// The monitor can be restarted after a full stop.
	m.Start()
	m.Stop()
}

func TestNewMonitor_DoesNotScheduleTimers(t *testing.T) {
	m := testMonitor(configuration.MonitoringConfig{
		HealthCheckInterval: time.Millisecond,
	})

	var mu sync.Mutex
	events := 0
	defer m.Subscribe(func(Event) {
		mu.Lock()
		events++
		mu.Unlock()
	})()

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, events, "construction must not start the scheduler")
}
