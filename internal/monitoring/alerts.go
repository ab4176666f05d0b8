package monitoring

import (
	"time"

	"github.com/google/uuid"
)

// defaultAlertCooldown applies when a condition does not specify one, so a
// noisy metric cannot re-fire the same alert on every record.
const defaultAlertCooldown = 5 * time.Minute

// Metric names an observable quantity an alert condition can watch.
type Metric string

const (
	// MetricToolErrorRate is the per-tool failure fraction over the health
	// window, evaluated on each matching tool-operation record.
	MetricToolErrorRate Metric = "tool_error_rate"
	// MetricErrorRate is the failure fraction across all tools.
	MetricErrorRate Metric = "error_rate"
	// MetricAverageLatency is the mean windowed performance duration in
	// milliseconds.
	MetricAverageLatency Metric = "average_latency"
	// MetricMemoryUsage is heap allocation as a fraction of the assumed
	// limit, evaluated on health ticks.
	MetricMemoryUsage Metric = "memory_usage"
)

// Operator compares a live value against a condition threshold.
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpEqual          Operator = "eq"
)

// satisfied reports whether value compares against threshold per op.
func (op Operator) satisfied(value, threshold float64) bool {
	switch op {
	case OpGreaterThan:
		return value > threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpLessThan:
		return value < threshold
	case OpLessOrEqual:
		return value <= threshold
	case OpEqual:
		return value == threshold
	default:
		return false
	}
}

// AlertCondition describes when an alert should fire.
type AlertCondition struct {
	// Metric selects the observed quantity.
	Metric Metric `json:"metric"`
	// Tool restricts tool-scoped metrics to one tool; empty matches any.
	Tool string `json:"tool,omitempty"`
	// Threshold is compared against the live value per Operator.
	Threshold float64  `json:"threshold"`
	Operator  Operator `json:"operator"`
	// Cooldown is the minimum interval between firings. Zero selects the
	// package default.
	Cooldown time.Duration `json:"cooldown"`
}

// AlertFiring is the payload delivered to the callback and published as an
// alert event when a condition fires.
type AlertFiring struct {
	ID           string         `json:"id"`
	Condition    AlertCondition `json:"condition"`
	CurrentValue float64        `json:"current_value"`
	// Tool is the tool the value was computed from, for tool-scoped metrics.
	Tool      string    `json:"tool,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertCallback is invoked when an alert fires. Panics are recovered and
// logged; they never surface to the metric-recording caller.
type AlertCallback func(AlertFiring)

// alertState is one registered alert. lastTriggered gates the cooldown:
// a fired alert stays silent until the cooldown elapses.
type alertState struct {
	id            string
	condition     AlertCondition
	callback      AlertCallback
	lastTriggered time.Time
}

// SetupAlert registers an active alert and returns its opaque id.
func (m *Monitor) SetupAlert(condition AlertCondition, callback AlertCallback) string {
	id := uuid.New().String()

	m.mu.Lock()
	m.alerts[id] = &alertState{
		id:        id,
		condition: condition,
		callback:  callback,
	}
	m.mu.Unlock()

	m.logger.Info("alert registered",
		"alert_id", id,
		"metric", condition.Metric,
		"operator", condition.Operator,
		"threshold", condition.Threshold)
	return id
}

// RemoveAlert deactivates the alert and reports whether it existed.
func (m *Monitor) RemoveAlert(id string) bool {
	m.mu.Lock()
	_, ok := m.alerts[id]
	delete(m.alerts, id)
	m.mu.Unlock()

	if ok {
		m.logger.Info("alert removed", "alert_id", id)
	}
	return ok
}

// evaluateAlerts checks every registered alert whose metric is observable
// from the given event kind. Firing decisions and cooldown stamping happen
// under the lock; callbacks and event publication happen outside it so a
// callback may safely call back into the monitor.
func (m *Monitor) evaluateAlerts(now time.Time, kind EventKind, tool string) {
	cutoff := now.Add(-m.cfg.HealthWindow)

	m.mu.Lock()
	var firings []AlertFiring
	var callbacks []AlertCallback
	for _, alert := range m.alerts {
		if !metricObservableOn(alert.condition.Metric, kind) {
			continue
		}

		value, valueTool, ok := m.currentValueLocked(alert.condition, kind, tool, cutoff)
		if !ok || !alert.condition.Operator.satisfied(value, alert.condition.Threshold) {
			continue
		}

		cooldown := alert.condition.Cooldown
		if cooldown <= 0 {
			cooldown = defaultAlertCooldown
		}
		if !alert.lastTriggered.IsZero() && now.Sub(alert.lastTriggered) < cooldown {
			continue
		}

		alert.lastTriggered = now
		firings = append(firings, AlertFiring{
			ID:           alert.id,
			Condition:    alert.condition,
			CurrentValue: value,
			Tool:         valueTool,
			Timestamp:    now,
		})
		callbacks = append(callbacks, alert.callback)
	}
	m.mu.Unlock()

	for i, firing := range firings {
		m.logger.Warn("alert triggered",
			"alert_id", firing.ID,
			"metric", firing.Condition.Metric,
			"current_value", firing.CurrentValue,
			"threshold", firing.Condition.Threshold)
		m.invokeCallback(callbacks[i], firing)
		m.events.Publish(Event{
			Kind:      EventAlert,
			Alert:     &firing,
			Timestamp: now,
		})
	}
}

// currentValueLocked computes the live value for a condition. For
// tool-scoped metrics the value is derived only from the triggering tool's
// trailing records.
func (m *Monitor) currentValueLocked(
	condition AlertCondition,
	kind EventKind,
	tool string,
	cutoff time.Time,
) (value float64, valueTool string, ok bool) {
	switch condition.Metric {
	case MetricToolErrorRate:
		target := condition.Tool
		if target == "" {
			target = tool
		}
		if kind == EventToolOperation && condition.Tool != "" && condition.Tool != tool {
			return 0, "", false
		}
		if target == "" {
			return 0, "", false
		}
		return m.errorRateLocked(cutoff, target), target, true

	case MetricErrorRate:
		return m.errorRateLocked(cutoff, ""), "", true

	case MetricAverageLatency:
		return float64(m.averageResponseLocked(cutoff).Milliseconds()), "", true

	case MetricMemoryUsage:
		return heapUsageRatio(m.cfg.MemoryLimit), "", true

	default:
		return 0, "", false
	}
}

// metricObservableOn maps each metric to the event kinds that can produce a
// fresh value for it.
func metricObservableOn(metric Metric, kind EventKind) bool {
	switch metric {
	case MetricToolErrorRate:
		return kind == EventToolOperation
	case MetricErrorRate:
		return kind == EventToolOperation || kind == EventHealthCheck
	case MetricAverageLatency:
		return kind == EventPerformanceMetric || kind == EventHealthCheck
	case MetricMemoryUsage:
		return kind == EventHealthCheck
	default:
		return false
	}
}

// invokeCallback runs the callback with a recover guard so a panicking
// callback cannot break the recording path.
func (m *Monitor) invokeCallback(callback AlertCallback, firing AlertFiring) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert callback panicked",
				"alert_id", firing.ID,
				"panic", r)
		}
	}()
	callback(firing)
}
