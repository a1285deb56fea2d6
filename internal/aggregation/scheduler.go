package aggregation

import (
	"context"
	"log/slog"
	"time"
)

// Ticker delivers periodic ticks. It is satisfied by a wrapped *time.Ticker in
// production and by a hand-driven channel in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Scheduler runs a job on a periodic interval.
// The job runs on the scheduler goroutine, so a tick that arrives while the job is
// still running is coalesced by the ticker instead of starting a second run.
type Scheduler struct {
	name      string
	interval  time.Duration
	job       func(ctx context.Context)
	newTicker func(time.Duration) Ticker
}

// NewScheduler creates a scheduler that calls job every interval.
func NewScheduler(name string, interval time.Duration, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		name:      name,
		interval:  interval,
		job:       job,
		newTicker: newRealTicker,
	}
}

// Start begins periodic execution.
// Runs until context is cancelled. Draining whatever the job works on at shutdown
// is the owner's responsibility.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting", "name", s.name, "interval", s.interval)

	for {
		select {
		case <-ticker.C():
			s.job(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)", "name", s.name)
			return nil
		}
	}
}
