package monitoring

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ahrav/go-vigil/internal/configuration"
)

// Health component names evaluated on every health check.
const (
	ComponentToolOperations = "tool_operations"
	ComponentMemoryUsage    = "memory_usage"
	ComponentResponseTimes  = "response_times"
)

// HealthLevel is the three-level health classification.
type HealthLevel int

const (
	// HealthHealthy means all components are inside their thresholds.
	HealthHealthy HealthLevel = iota
	// HealthDegraded means at least one component crossed its warning threshold.
	HealthDegraded
	// HealthUnhealthy means at least one component crossed its critical threshold.
	HealthUnhealthy
)

// String returns the health level name.
func (l HealthLevel) String() string {
	switch l {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// ComponentHealth is the derived status of one named component.
type ComponentHealth struct {
	Status HealthLevel `json:"status"`
	// Value is the measured quantity the status was derived from: error
	// rate for tool_operations, heap ratio for memory_usage, average
	// milliseconds for response_times.
	Value float64 `json:"value"`
	// Detail is a human-readable description of the measurement.
	Detail string `json:"detail"`
}

// HealthStatus is the derived overall health. Computed fresh on each
// request from the trailing health window; never mutated in place.
type HealthStatus struct {
	Status     HealthLevel                `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	// CriticalIssues collects one line per unhealthy component.
	CriticalIssues []string  `json:"critical_issues"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthStatus derives the three-level health from the trailing health
// window. Overall status follows strict precedence: unhealthy if any
// component is unhealthy, else degraded if any is degraded, else healthy.
func (m *Monitor) HealthStatus() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthStatusLocked(time.Now())
}

func (m *Monitor) healthStatusLocked(now time.Time) HealthStatus {
	cutoff := now.Add(-m.cfg.HealthWindow)

	status := HealthStatus{
		Components: make(map[string]ComponentHealth),
		Timestamp:  now,
	}

	errorRate := m.errorRateLocked(cutoff, "")
	status.Components[ComponentToolOperations] = classify(
		errorRate,
		configuration.ErrorRateDegraded,
		configuration.ErrorRateUnhealthy,
		fmt.Sprintf("error rate %.1f%%", errorRate*100),
	)

	heapRatio := heapUsageRatio(m.cfg.MemoryLimit)
	status.Components[ComponentMemoryUsage] = classify(
		heapRatio,
		configuration.MemoryRatioDegraded,
		configuration.MemoryRatioUnhealthy,
		fmt.Sprintf("heap usage %.1f%% of limit", heapRatio*100),
	)

	avg := m.averageResponseLocked(cutoff)
	status.Components[ComponentResponseTimes] = classify(
		float64(avg.Milliseconds()),
		float64(configuration.LatencyDegraded.Milliseconds()),
		float64(configuration.LatencyUnhealthy.Milliseconds()),
		fmt.Sprintf("average response %dms", avg.Milliseconds()),
	)

	for name, component := range status.Components {
		if component.Status > status.Status {
			status.Status = component.Status
		}
		if component.Status == HealthUnhealthy {
			status.CriticalIssues = append(status.CriticalIssues,
				fmt.Sprintf("%s: %s", name, component.Detail))
		}
	}

	return status
}

// RunHealthCheck computes the health status, publishes a health-check
// event, and evaluates the health-driven alerts. The scheduler calls this
// on every health tick.
func (m *Monitor) RunHealthCheck() HealthStatus {
	now := time.Now()

	m.mu.Lock()
	status := m.healthStatusLocked(now)
	m.mu.Unlock()

	m.events.Publish(Event{
		Kind:      EventHealthCheck,
		Health:    &status,
		Timestamp: now,
	})

	m.evaluateAlerts(now, EventHealthCheck, "")
	return status
}

// classify maps a measured value onto the three-level scale. The value is
// degraded strictly above the warning threshold and unhealthy strictly
// above the critical threshold.
func classify(value, degraded, unhealthy float64, detail string) ComponentHealth {
	component := ComponentHealth{Status: HealthHealthy, Value: value, Detail: detail}
	switch {
	case value > unhealthy:
		component.Status = HealthUnhealthy
	case value > degraded:
		component.Status = HealthDegraded
	}
	return component
}

// errorRateLocked computes the failure fraction of windowed tool
// operations, optionally restricted to one tool. Zero when there is no
// data: absence of failure is not evidence of failure.
func (m *Monitor) errorRateLocked(cutoff time.Time, tool string) float64 {
	ops := m.toolOpsSince(cutoff, tool)
	if len(ops) == 0 {
		return 0
	}

	failures := 0
	for _, op := range ops {
		if !op.Success {
			failures++
		}
	}
	return float64(failures) / float64(len(ops))
}

// averageResponseLocked computes the mean windowed performance duration.
func (m *Monitor) averageResponseLocked(cutoff time.Time) time.Duration {
	samples := m.perfSince(cutoff)
	if len(samples) == 0 {
		return 0
	}

	var total time.Duration
	for _, s := range samples {
		total += s.Duration
	}
	return total / time.Duration(len(samples))
}

// heapUsageRatio reports current heap allocation as a fraction of the
// assumed limit.
func heapUsageRatio(limit uint64) float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapAlloc) / float64(limit)
}
