package monitoring

import (
	"time"
)

// EventKind enumerates the messages the monitoring engine publishes.
type EventKind int

const (
	// EventToolOperation is published for every recorded tool operation.
	EventToolOperation EventKind = iota
	// EventPerformanceMetric is published for every recorded performance sample.
	EventPerformanceMetric
	// EventHealthCheck is published when a scheduled health evaluation runs.
	EventHealthCheck
	// EventAlert is published when an alert fires.
	EventAlert
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventToolOperation:
		return "tool_operation"
	case EventPerformanceMetric:
		return "performance_metric"
	case EventHealthCheck:
		return "health_check"
	case EventAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Event is the message published to monitoring subscribers. Exactly one of
// the payload fields beyond the shared ones is meaningful per kind.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Tool      string        `json:"tool,omitempty"`
	Operation string        `json:"operation,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Success   bool          `json:"success,omitempty"`
	Error     string        `json:"error,omitempty"`
	Health    *HealthStatus `json:"health,omitempty"`
	Alert     *AlertFiring  `json:"alert,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
