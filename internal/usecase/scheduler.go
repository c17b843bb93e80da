package usecase

import (
	"context"
	"log/slog"
	"time"

	"LeadScout/internal/ports"
)

// Scheduler wires a periodic driver with the monitoring use case.
type Scheduler struct {
	driver  ports.Scheduler
	monitor *Monitor
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring monitoring runs.
func NewScheduler(driver ports.Scheduler, monitor *Monitor, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, monitor: monitor, logger: logger}
}

// Start registers the monitor with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		summary, err := s.monitor.Run(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled run failed", "error", err)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled run finished",
				"processed", summary.Processed, "saved", summary.Saved)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
