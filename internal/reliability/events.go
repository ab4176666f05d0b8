package reliability

import (
	"time"
)

// EventKind enumerates the messages the reliability engine publishes.
type EventKind int

const (
	// EventSuccess is published after a circuit-breaker-wrapped call succeeds.
	EventSuccess EventKind = iota
	// EventFailure is published after a circuit-breaker-wrapped call fails,
	// including admission rejections.
	EventFailure
	// EventReset is published when an operator resets a circuit breaker.
	EventReset
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventFailure:
		return "failure"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is the message published to reliability subscribers. Every event
// carries the operation name and a breaker snapshot taken at publish time.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Operation string        `json:"operation"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}
