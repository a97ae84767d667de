package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	lastRun  time.Time
}

// Scheduler is a single-goroutine cooperative loop. On each tick it runs
// every job whose interval has elapsed, synchronously and in registration
// order, so runs of the same job never overlap. The clock is injectable for
// tests.
type Scheduler struct {
	tick time.Duration
	now  func() time.Time
	jobs []*job
}

func New(tick time.Duration) *Scheduler {
	return &Scheduler{tick: tick, now: time.Now}
}

// NewWithClock builds a scheduler driven by the given clock.
func NewWithClock(tick time.Duration, now func() time.Time) *Scheduler {
	return &Scheduler{tick: tick, now: now}
}

// Add registers a job to run every interval. Jobs are due immediately on the
// first tick.
func (s *Scheduler) Add(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, &job{name: name, interval: interval, run: run})
}

// RunDue executes every job whose interval has elapsed. A job that returns
// an error keeps its previous lastRun, so it is due again on the next tick
// rather than waiting a full interval.
func (s *Scheduler) RunDue(ctx context.Context) {
	for _, j := range s.jobs {
		now := s.now()
		if !j.lastRun.IsZero() && now.Sub(j.lastRun) < j.interval {
			continue
		}

		slog.Info("running scheduled job", "job", j.name)
		if err := j.run(ctx); err != nil {
			slog.Error("scheduled job failed, will retry next tick", "job", j.name, "error", err)
			continue
		}
		j.lastRun = now
	}
}

// Run drives the tick loop until the context is canceled. Due jobs are run
// once immediately on start.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}
