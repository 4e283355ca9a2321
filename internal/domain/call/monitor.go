package call

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Monitor reconciles the tracked call on a fixed interval so manual
// hang-ups are recorded even when no client polls.
type Monitor struct {
	tracker  *Tracker
	interval time.Duration
	logger   *zap.Logger
}

// NewMonitor creates a monitor. A non-positive interval disables it.
func NewMonitor(tracker *Tracker, interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{tracker: tracker, interval: interval, logger: logger}
}

// Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("call monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("call monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	// Nothing to detect while idle; skip probing the device.
	if !m.tracker.Session().Snapshot().Tracking() {
		return
	}
	status, err := m.tracker.Reconcile(ctx)
	if err != nil {
		m.logger.Error("reconcile failed", zap.Error(err))
		return
	}
	if status.HangUpDetected {
		m.logger.Info("monitor recorded hang-up", zap.String("contact_id", status.ContactID), zap.String("duration", status.Duration))
	}
}
