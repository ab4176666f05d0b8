package monitoring

import (
	"time"
)

// Start launches the periodic cleanup and health-check tickers in a single
// background goroutine. Construction never starts timers; the caller owns
// the lifecycle so ephemeral environments can run entirely timer-free.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start() {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(m.stop, m.done)
	m.logger.Info("monitoring scheduler started",
		"cleanup_interval", m.cfg.CleanupInterval,
		"health_check_interval", m.cfg.HealthCheckInterval)
}

// Stop halts the scheduler and waits for the background goroutine to exit.
// Safe to call multiple times and on a monitor that was never started.
func (m *Monitor) Stop() {
	m.schedMu.Lock()
	defer m.schedMu.Unlock()

	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
	m.done = nil

	m.logger.Info("monitoring scheduler stopped")
}

// run drives both tickers until stop is closed.
func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	cleanup := time.NewTicker(m.cfg.CleanupInterval)
	defer cleanup.Stop()
	health := time.NewTicker(m.cfg.HealthCheckInterval)
	defer health.Stop()

	for {
		select {
		case <-cleanup.C:
			m.Cleanup()
		case <-health.C:
			m.RunHealthCheck()
		case <-stop:
			return
		}
	}
}
