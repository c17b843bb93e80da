package scheduler

import (
	"context"
	"time"

	"LeadScout/internal/ports"
)

// Interval triggers the job on a fixed period. It is the optional built-in
// alternative to an external cron hitting the trigger endpoint.
type Interval struct {
	period time.Duration
	stop   chan struct{}
}

var _ ports.Scheduler = (*Interval)(nil)

// NewInterval builds a scheduler firing every period.
func NewInterval(period time.Duration) *Interval {
	return &Interval{period: period}
}

// Start launches the ticking goroutine. The job also runs once immediately.
func (s *Interval) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || s.period <= 0 {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *Interval) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
