package monitoring

import (
	"sort"
	"time"
)

// ToolStats aggregates call and error counts for one tool.
type ToolStats struct {
	Calls  int `json:"calls"`
	Errors int `json:"errors"`
}

// Summary aggregates metrics over the trailing summary window.
type Summary struct {
	// TotalCalls is the number of tool operations inside the window.
	TotalCalls int `json:"total_calls"`
	// SuccessRate is the windowed success fraction. With no data it is 1.0:
	// absence of failure is not evidence of failure.
	SuccessRate float64 `json:"success_rate"`
	// AverageLatency is the mean tool-operation duration inside the window.
	AverageLatency time.Duration `json:"average_latency"`
	// Tools maps tool names to their windowed call and error counts.
	Tools map[string]ToolStats `json:"tools"`
	// P95 and P99 are percentile response times over the windowed
	// performance samples, zero when the window is empty.
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
	// Timestamp is when the summary was computed.
	Timestamp time.Time `json:"timestamp"`
}

// MetricsSummary computes aggregate statistics over the trailing summary
// window. It is computed fresh on every call and never fails, returning
// well-defined defaults when the window is empty.
func (m *Monitor) MetricsSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-m.cfg.SummaryWindow)

	summary := Summary{
		SuccessRate: 1.0,
		Tools:       make(map[string]ToolStats),
		Timestamp:   now,
	}

	var successes int
	var totalDuration time.Duration
	for _, op := range m.toolOpsSince(cutoff, "") {
		summary.TotalCalls++
		totalDuration += op.Duration

		stats := summary.Tools[op.Tool]
		stats.Calls++
		if op.Success {
			successes++
		} else {
			stats.Errors++
		}
		summary.Tools[op.Tool] = stats
	}

	if summary.TotalCalls > 0 {
		summary.SuccessRate = float64(successes) / float64(summary.TotalCalls)
		summary.AverageLatency = totalDuration / time.Duration(summary.TotalCalls)
	}

	summary.P95, summary.P99 = percentiles(m.perfSince(cutoff))
	return summary
}

// percentiles sorts the windowed sample durations and indexes at
// floor(n*0.95) and floor(n*0.99). Zero when the window is empty.
func percentiles(samples []PerformanceSample) (p95, p99 time.Duration) {
	n := len(samples)
	if n == 0 {
		return 0, 0
	}

	durations := make([]time.Duration, n)
	for i, s := range samples {
		durations[i] = s.Duration
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	return durations[n*95/100], durations[n*99/100]
}
