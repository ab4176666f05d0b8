package configuration

import (
	"time"
)

// Circuit breaker constants.
const (
	DefaultFailureThreshold = 0.5
	DefaultMinimumCalls     = 10
	DefaultResetTimeout     = 30 * time.Second
	DefaultMonitoringWindow = 60 * time.Second
)

// Retry constants.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialInterval   = 250 * time.Millisecond
	DefaultMaxInterval       = 5 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Monitoring constants.
const (
	DefaultRetention           = 24 * time.Hour
	DefaultSummaryWindow       = 1 * time.Hour
	DefaultHealthWindow        = 5 * time.Minute
	DefaultCleanupInterval     = 5 * time.Minute
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultMemoryLimit         = 1 << 30 // 1 GiB assumed heap budget
)

// Health thresholds for the fixed component set evaluated by the monitor.
const (
	ErrorRateUnhealthy   = 0.10
	ErrorRateDegraded    = 0.05
	MemoryRatioUnhealthy = 0.90
	MemoryRatioDegraded  = 0.70
	LatencyUnhealthy     = 2000 * time.Millisecond
	LatencyDegraded      = 1000 * time.Millisecond
)

// DefaultConfig returns production-ready configuration with sensible defaults.
// Provides balanced settings for resilience and observability suitable for
// production workloads without additional configuration.
func DefaultConfig() *Config {
	return &Config{
		Reliability: ReliabilityConfig{
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: DefaultFailureThreshold,
				MinimumCalls:     DefaultMinimumCalls,
				ResetTimeout:     DefaultResetTimeout,
				MonitoringWindow: DefaultMonitoringWindow,
			},
			Retry: RetryConfig{
				MaxAttempts:     DefaultMaxAttempts,
				InitialInterval: DefaultInitialInterval,
				MaxInterval:     DefaultMaxInterval,
				Multiplier:      DefaultBackoffMultiplier,
			},
		},
		Monitoring: MonitoringConfig{
			Retention:           DefaultRetention,
			SummaryWindow:       DefaultSummaryWindow,
			HealthWindow:        DefaultHealthWindow,
			CleanupInterval:     DefaultCleanupInterval,
			HealthCheckInterval: DefaultHealthCheckInterval,
			MemoryLimit:         DefaultMemoryLimit,
		},
		Observability: ObservabilityConfig{
			LogLevel:         "info",
			LogFormat:        "json",
			MetricsEnabled:   true,
			MetricsNamespace: "vigil",
		},
	}
}
