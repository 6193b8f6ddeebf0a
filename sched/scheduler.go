// Package sched runs the daily wall-clock jobs (news digest, quote).
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// clockLayout is the wall-clock format jobs are scheduled with.
const clockLayout = "15:04"

// defaultTick is deliberately shorter than a minute so a scheduled
// minute is never skipped; lastRun dedupes the extra ticks.
const defaultTick = 20 * time.Second

// Job fires once per day at the given local wall-clock time.
type Job struct {
	Name string
	At   string // "15:04"
	Run  func(ctx context.Context) error
}

// Scheduler is a supervised worker polling the wall clock.
type Scheduler struct {
	log  *slog.Logger
	jobs []Job
	now  func() time.Time
	tick time.Duration

	lastRun map[string]string // job name to last fired day
}

func New(log *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		log:     log,
		jobs:    jobs,
		now:     time.Now,
		tick:    defaultTick,
		lastRun: make(map[string]string),
	}
}

// WithClock overrides the time source and tick interval, used by tests.
func (s *Scheduler) WithClock(now func() time.Time, tick time.Duration) *Scheduler {
	s.now = now
	s.tick = tick
	return s
}

// Run polls until the context ends. Malformed job times fail fast.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, job := range s.jobs {
		if _, err := time.Parse(clockLayout, job.At); err != nil {
			return fmt.Errorf("job %s has invalid time %q: %w", job.Name, job.At, err)
		}
		s.log.Info("Job scheduled", "name", job.Name, "at", job.At)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	now := s.now()
	clock := now.Format(clockLayout)
	day := now.Format("2006-01-02")

	for _, job := range s.jobs {
		if job.At != clock || s.lastRun[job.Name] == day {
			continue
		}
		s.lastRun[job.Name] = day

		s.log.Info("Job firing", "name", job.Name)
		if err := job.Run(ctx); err != nil {
			s.log.Error("Job failed", "name", job.Name, "error", err)
		}
	}
}
