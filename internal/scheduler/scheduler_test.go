package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestRunDue_FirstTickRunsJob(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	runs := 0
	s.Add("ingest", 6*time.Hour, func(ctx context.Context) error {
		runs++
		return nil
	})

	s.RunDue(context.Background())

	assert.Equal(t, 1, runs)
}

func TestRunDue_NotDueBeforeInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	runs := 0
	s.Add("ingest", 6*time.Hour, func(ctx context.Context) error {
		runs++
		return nil
	})

	s.RunDue(context.Background())
	clock.Advance(time.Minute)
	s.RunDue(context.Background())

	assert.Equal(t, 1, runs)
}

func TestRunDue_DueAfterInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	runs := 0
	s.Add("ingest", 6*time.Hour, func(ctx context.Context) error {
		runs++
		return nil
	})

	s.RunDue(context.Background())
	clock.Advance(6 * time.Hour)
	s.RunDue(context.Background())

	assert.Equal(t, 2, runs)
}

func TestRunDue_FailedJobRetriesNextTick(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	runs := 0
	s.Add("ingest", 6*time.Hour, func(ctx context.Context) error {
		runs++
		if runs == 1 {
			return errors.New("store unavailable")
		}
		return nil
	})

	s.RunDue(context.Background())
	clock.Advance(time.Minute)
	s.RunDue(context.Background())
	clock.Advance(time.Minute)
	s.RunDue(context.Background())

	// Failure retried on the next tick; success waits a full interval.
	assert.Equal(t, 2, runs)
}

func TestRunDue_IndependentIntervals(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	var ingests, sweeps int
	s.Add("ingest", 6*time.Hour, func(ctx context.Context) error {
		ingests++
		return nil
	})
	s.Add("sweep", time.Hour, func(ctx context.Context) error {
		sweeps++
		return nil
	})

	s.RunDue(context.Background())
	for range 6 {
		clock.Advance(time.Hour)
		s.RunDue(context.Background())
	}

	assert.Equal(t, 2, ingests)
	assert.Equal(t, 7, sweeps)
}

func TestRunDue_JobsRunSequentially(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	s := NewWithClock(time.Minute, clock.Now)

	var order []string
	s.Add("first", time.Hour, func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	s.Add("second", time.Hour, func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	s.RunDue(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
}
