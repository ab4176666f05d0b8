// Package configuration holds the configuration surface for the reliability
// and monitoring engines. It provides production-ready defaults, YAML file
// loading, validation, and structured logger construction.
package configuration

import (
	"errors"
	"fmt"
	"time"
)

// Configuration validation errors.
var (
	ErrFailureThresholdInvalid = errors.New("failureThreshold must be in (0, 1]")
	ErrMinimumCallsInvalid     = errors.New("minimumCalls must be greater than 0")
	ErrResetTimeoutInvalid     = errors.New("resetTimeout must be greater than 0")
	ErrWindowInvalid           = errors.New("monitoringWindow must be greater than 0")
	ErrInitialIntervalInvalid  = errors.New("initialInterval must be greater than 0")
	ErrMaxIntervalInvalid      = errors.New("maxInterval must be >= initialInterval")
	ErrMultiplierInvalid       = errors.New("multiplier must be >= 1.0")
	ErrRetentionInvalid        = errors.New("retention must be greater than 0")
	ErrSummaryWindowInvalid    = errors.New("summaryWindow must be greater than 0")
	ErrHealthWindowInvalid     = errors.New("healthWindow must be greater than 0")
	ErrMemoryLimitInvalid      = errors.New("memoryLimit must be greater than 0")
)

// Config holds the complete configuration for the reliability and
// monitoring engines plus observability settings.
type Config struct {
	// Reliability configuration (circuit breakers, retries, timeouts).
	Reliability ReliabilityConfig `json:"reliability" yaml:"reliability"`

	// Monitoring configuration (metrics retention, health, alerting).
	Monitoring MonitoringConfig `json:"monitoring" yaml:"monitoring"`

	// Observability configuration (logging, telemetry export).
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// ReliabilityConfig groups the defaults applied to reliability primitives.
// Per-operation overrides are merged over these values at call time.
type ReliabilityConfig struct {
	// CircuitBreaker holds process-wide circuit breaker defaults.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`

	// Retry holds process-wide retry defaults.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// Timeout is the default per-attempt deadline when a caller does not
	// supply one. Zero disables the timeout layer.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// CircuitBreakerConfig controls circuit breaker behavior for operation protection.
// The breaker evaluates the failure rate over a trailing monitoring window
// rather than consecutive-failure counts, so an old burst of failures ages
// out of the statistics without a forced transition.
type CircuitBreakerConfig struct {
	// FailureThreshold is the windowed failure rate (0..1] that opens the circuit.
	FailureThreshold float64 `json:"failure_threshold" yaml:"failure_threshold"`
	// MinimumCalls is the minimum number of windowed calls required before
	// the failure rate is considered statistically meaningful.
	MinimumCalls int `json:"minimum_calls" yaml:"minimum_calls"`
	// ResetTimeout is how long the circuit stays open before admitting a probe.
	ResetTimeout time.Duration `json:"reset_timeout" yaml:"reset_timeout"`
	// MonitoringWindow bounds the call history used for rate computation.
	MonitoringWindow time.Duration `json:"monitoring_window" yaml:"monitoring_window"`
}

// RetryConfig controls retry behavior for failed operations.
// Implements exponential backoff with a configurable cap.
type RetryConfig struct {
	// MaxAttempts is the maximum number of invocations. Values <= 0 still
	// produce exactly one attempt; see reliability.ExecuteWithRetry.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	// InitialInterval is the starting backoff duration.
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial_interval"`
	// MaxInterval caps the backoff duration.
	MaxInterval time.Duration `json:"max_interval" yaml:"max_interval"`
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// MonitoringConfig controls metric retention, health evaluation windows,
// and the periodic scheduler owned by the monitoring engine.
type MonitoringConfig struct {
	// Retention is how long recorded metrics are kept before being purged.
	Retention time.Duration `json:"retention" yaml:"retention"`
	// SummaryWindow is the trailing window used by metrics summaries.
	SummaryWindow time.Duration `json:"summary_window" yaml:"summary_window"`
	// HealthWindow is the trailing window used by health and alert evaluation.
	HealthWindow time.Duration `json:"health_window" yaml:"health_window"`
	// CleanupInterval is the period between retention sweeps when the
	// scheduler is started.
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	// HealthCheckInterval is the period between scheduled health evaluations.
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval"`
	// MemoryLimit is the assumed heap budget in bytes used by the
	// memory_usage health component.
	MemoryLimit uint64 `json:"memory_limit" yaml:"memory_limit"`
}

// ObservabilityConfig controls structured logging and telemetry export.
type ObservabilityConfig struct {
	LogLevel         string `json:"log_level" yaml:"log_level"`
	LogFormat        string `json:"log_format" yaml:"log_format"`
	MetricsEnabled   bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
}

// Validate checks the configuration for values the engines cannot operate with.
// It returns the first violation found.
func (c *Config) Validate() error {
	cb := c.Reliability.CircuitBreaker
	if cb.FailureThreshold <= 0 || cb.FailureThreshold > 1 {
		return fmt.Errorf("%w, got %f", ErrFailureThresholdInvalid, cb.FailureThreshold)
	}
	if cb.MinimumCalls <= 0 {
		return fmt.Errorf("%w, got %d", ErrMinimumCallsInvalid, cb.MinimumCalls)
	}
	if cb.ResetTimeout <= 0 {
		return fmt.Errorf("%w, got %v", ErrResetTimeoutInvalid, cb.ResetTimeout)
	}
	if cb.MonitoringWindow <= 0 {
		return fmt.Errorf("%w, got %v", ErrWindowInvalid, cb.MonitoringWindow)
	}

	r := c.Reliability.Retry
	if r.InitialInterval <= 0 {
		return fmt.Errorf("%w, got %v", ErrInitialIntervalInvalid, r.InitialInterval)
	}
	if r.MaxInterval < r.InitialInterval {
		return fmt.Errorf("%w, MaxInterval: %v, InitialInterval: %v",
			ErrMaxIntervalInvalid, r.MaxInterval, r.InitialInterval)
	}
	if r.Multiplier < 1.0 {
		return fmt.Errorf("%w, got %f", ErrMultiplierInvalid, r.Multiplier)
	}

	m := c.Monitoring
	if m.Retention <= 0 {
		return fmt.Errorf("%w, got %v", ErrRetentionInvalid, m.Retention)
	}
	if m.SummaryWindow <= 0 {
		return fmt.Errorf("%w, got %v", ErrSummaryWindowInvalid, m.SummaryWindow)
	}
	if m.HealthWindow <= 0 {
		return fmt.Errorf("%w, got %v", ErrHealthWindowInvalid, m.HealthWindow)
	}
	if m.MemoryLimit == 0 {
		return ErrMemoryLimitInvalid
	}

	return nil
}
