// Package monitoring implements the metrics, health, and alerting core:
// bounded time-windowed metric logs, derived health aggregation, and
// threshold alerts with cooldown. All state is memory-resident and owned by
// a single Monitor instance.
package monitoring

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ahrav/go-vigil/internal/configuration"
	"github.com/ahrav/go-vigil/internal/pubsub"
)

// ToolOperation is one recorded tool invocation. Immutable once recorded;
// purged when older than the retention window.
type ToolOperation struct {
	Tool      string        `json:"tool"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// PerformanceSample is one recorded generic performance measurement.
type PerformanceSample struct {
	Operation string        `json:"operation"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Monitor owns the metric logs, the alert registry, and the periodic
// scheduler. Construction never starts timers; callers opt in via Start.
type Monitor struct {
	cfg    configuration.MonitoringConfig
	logger *slog.Logger
	events *pubsub.Broker[Event]

	mu      sync.Mutex
	toolOps []ToolOperation
	perf    []PerformanceSample
	alerts  map[string]*alertState

	schedMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// NewMonitor creates a monitoring engine with the given configuration.
// Zero-value config fields are filled from the package defaults. No
// background work is scheduled until Start is called.
func NewMonitor(cfg configuration.MonitoringConfig, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	applyMonitoringDefaults(&cfg)

	return &Monitor{
		cfg:    cfg,
		logger: logger.With("component", "monitoring"),
		events: pubsub.NewBroker[Event](logger),
		alerts: make(map[string]*alertState),
	}
}

// Subscribe registers a listener for monitoring events and returns its
// unsubscribe handle.
func (m *Monitor) Subscribe(fn func(Event)) func() {
	return m.events.Subscribe(fn)
}

// RecordToolOperation appends a timestamped tool-operation record.
// It is synchronous and tolerant: malformed input (negative duration, empty
// name) is recorded as given rather than rejected.
func (m *Monitor) RecordToolOperation(tool string, duration time.Duration, success bool, errMsg string) {
	m.recordToolOperationAt(tool, duration, success, errMsg, time.Now())
}

func (m *Monitor) recordToolOperationAt(tool string, duration time.Duration, success bool, errMsg string, at time.Time) {
	m.mu.Lock()
	m.toolOps = append(m.toolOps, ToolOperation{
		Tool:      tool,
		Timestamp: at,
		Duration:  duration,
		Success:   success,
		Error:     errMsg,
	})
	m.pruneLocked(at)
	m.mu.Unlock()

	m.events.Publish(Event{
		Kind:      EventToolOperation,
		Tool:      tool,
		Duration:  duration,
		Success:   success,
		Error:     errMsg,
		Timestamp: at,
	})

	m.evaluateAlerts(at, EventToolOperation, tool)
}

// RecordPerformanceMetric appends a timestamped performance sample.
func (m *Monitor) RecordPerformanceMetric(operation string, duration time.Duration) {
	m.recordPerformanceMetricAt(operation, duration, time.Now())
}

func (m *Monitor) recordPerformanceMetricAt(operation string, duration time.Duration, at time.Time) {
	m.mu.Lock()
	m.perf = append(m.perf, PerformanceSample{
		Operation: operation,
		Timestamp: at,
		Duration:  duration,
	})
	m.pruneLocked(at)
	m.mu.Unlock()

	m.events.Publish(Event{
		Kind:      EventPerformanceMetric,
		Operation: operation,
		Duration:  duration,
		Timestamp: at,
	})

	m.evaluateAlerts(at, EventPerformanceMetric, "")
}

// Cleanup removes records older than the retention window from both logs.
// The scheduler runs this periodically; it is also safe to call directly.
func (m *Monitor) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(time.Now())
}

// pruneLocked drops entries older than the retention window. Both logs are
// pruned independently on every write, so the in-memory footprint stays
// bounded without a dedicated sweep.
func (m *Monitor) pruneLocked(now time.Time) {
	cutoff := now.Add(-m.cfg.Retention)

	idx := 0
	for idx < len(m.toolOps) && m.toolOps[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		m.toolOps = append(m.toolOps[:0], m.toolOps[idx:]...)
	}

	idx = 0
	for idx < len(m.perf) && m.perf[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		m.perf = append(m.perf[:0], m.perf[idx:]...)
	}
}

// toolOpsSince returns the tool operations recorded at or after the cutoff,
// optionally restricted to one tool.
func (m *Monitor) toolOpsSince(cutoff time.Time, tool string) []ToolOperation {
	var out []ToolOperation
	for _, op := range m.toolOps {
		if op.Timestamp.Before(cutoff) {
			continue
		}
		if tool != "" && op.Tool != tool {
			continue
		}
		out = append(out, op)
	}
	return out
}

// perfSince returns the performance samples recorded at or after the cutoff.
func (m *Monitor) perfSince(cutoff time.Time) []PerformanceSample {
	var out []PerformanceSample
	for _, s := range m.perf {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// applyMonitoringDefaults fills zero-value config fields in place.
func applyMonitoringDefaults(cfg *configuration.MonitoringConfig) {
	if cfg.Retention <= 0 {
		cfg.Retention = configuration.DefaultRetention
	}
	if cfg.SummaryWindow <= 0 {
		cfg.SummaryWindow = configuration.DefaultSummaryWindow
	}
	if cfg.HealthWindow <= 0 {
		cfg.HealthWindow = configuration.DefaultHealthWindow
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = configuration.DefaultCleanupInterval
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = configuration.DefaultHealthCheckInterval
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = configuration.DefaultMemoryLimit
	}
}
