// Package telemetry bridges the reliability and monitoring event streams to
// Prometheus. The collector owns a private registry; callers that want an
// HTTP scrape endpoint mount it themselves, since the HTTP surface lives
// outside this core.
package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-vigil/internal/monitoring"
	"github.com/ahrav/go-vigil/internal/reliability"
)

// Collector registers and feeds the exported metric families.
type Collector struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	circuitRejections *prometheus.CounterVec
	circuitResets     *prometheus.CounterVec

	toolOperationsTotal *prometheus.CounterVec
	toolDuration        *prometheus.HistogramVec
	alertsTotal         *prometheus.CounterVec
	healthLevel         *prometheus.GaugeVec
}

// NewCollector creates a collector with all metric families registered on a
// fresh private registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "vigil"
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reliability",
			Name:      "operations_total",
			Help:      "Circuit-breaker-wrapped operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reliability",
			Name:      "operation_duration_seconds",
			Help:      "Duration of circuit-breaker-wrapped operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"operation"}),
		circuitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reliability",
			Name:      "circuit_rejections_total",
			Help:      "Executions rejected by an open circuit breaker.",
		}, []string{"operation"}),
		circuitResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reliability",
			Name:      "circuit_resets_total",
			Help:      "Operator-initiated circuit breaker resets.",
		}, []string{"operation"}),
		toolOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "tool_operations_total",
			Help:      "Recorded tool operations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "tool_operation_duration_seconds",
			Help:      "Duration of recorded tool operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"tool"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "alerts_fired_total",
			Help:      "Alert firings by metric.",
		}, []string{"metric"}),
		healthLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "health_level",
			Help:      "Component health level: 0 healthy, 1 degraded, 2 unhealthy.",
		}, []string{"component"}),
	}

	registry.MustRegister(
		c.operationsTotal,
		c.operationDuration,
		c.circuitRejections,
		c.circuitResets,
		c.toolOperationsTotal,
		c.toolDuration,
		c.alertsTotal,
		c.healthLevel,
	)
	return c
}

// Registry returns the private registry for mounting a scrape handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Attach subscribes the collector to both engines' event streams and
// returns a detach handle. Either engine may be nil.
func (c *Collector) Attach(r *reliability.Reliability, m *monitoring.Monitor) func() {
	var cancels []func()

	if r != nil {
		cancels = append(cancels, r.Subscribe(c.handleReliability))
	}
	if m != nil {
		cancels = append(cancels, m.Subscribe(c.handleMonitoring))
	}

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (c *Collector) handleReliability(event reliability.Event) {
	switch event.Kind {
	case reliability.EventSuccess:
		c.operationsTotal.WithLabelValues(event.Operation, "success").Inc()
		c.operationDuration.WithLabelValues(event.Operation).Observe(event.Duration.Seconds())
	case reliability.EventFailure:
		c.operationsTotal.WithLabelValues(event.Operation, "failure").Inc()
		c.operationDuration.WithLabelValues(event.Operation).Observe(event.Duration.Seconds())

		var circuitErr *reliability.CircuitOpenError
		if errors.As(event.Err, &circuitErr) {
			c.circuitRejections.WithLabelValues(event.Operation).Inc()
		}
	case reliability.EventReset:
		c.circuitResets.WithLabelValues(event.Operation).Inc()
	}
}

func (c *Collector) handleMonitoring(event monitoring.Event) {
	switch event.Kind {
	case monitoring.EventToolOperation:
		outcome := "success"
		if !event.Success {
			outcome = "failure"
		}
		c.toolOperationsTotal.WithLabelValues(event.Tool, outcome).Inc()
		c.toolDuration.WithLabelValues(event.Tool).Observe(event.Duration.Seconds())

	case monitoring.EventAlert:
		if event.Alert != nil {
			c.alertsTotal.WithLabelValues(string(event.Alert.Condition.Metric)).Inc()
		}

	case monitoring.EventHealthCheck:
		if event.Health != nil {
			for name, component := range event.Health.Components {
				c.healthLevel.WithLabelValues(name).Set(float64(component.Status))
			}
		}
	}
}
