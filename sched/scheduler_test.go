package sched

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_FiresOncePerDay(t *testing.T) {
	req := require.New(t)

	var runs atomic.Int32
	s := New(slog.Default(), Job{
		Name: "digest",
		At:   "09:00",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	s.lastRun = make(map[string]string)

	day := time.Date(2026, 8, 31, 9, 0, 10, 0, time.Local)

	s.now = func() time.Time { return day }
	s.fire(context.Background())
	req.Equal(int32(1), runs.Load())

	// Another tick in the same minute is deduped.
	s.now = func() time.Time { return day.Add(20 * time.Second) }
	s.fire(context.Background())
	req.Equal(int32(1), runs.Load())

	// The wrong minute never fires.
	s.now = func() time.Time { return day.Add(time.Hour) }
	s.fire(context.Background())
	req.Equal(int32(1), runs.Load())

	// The next day fires again.
	s.now = func() time.Time { return day.Add(24 * time.Hour) }
	s.fire(context.Background())
	req.Equal(int32(2), runs.Load())
}

func TestScheduler_MultipleJobs(t *testing.T) {
	req := require.New(t)

	var quote, news atomic.Int32
	s := New(slog.Default(),
		Job{Name: "quote", At: "09:00", Run: func(context.Context) error { quote.Add(1); return nil }},
		Job{Name: "news", At: "11:00", Run: func(context.Context) error { news.Add(1); return nil }},
	)

	s.now = func() time.Time { return time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local) }
	s.fire(context.Background())
	s.now = func() time.Time { return time.Date(2026, 8, 31, 11, 0, 0, 0, time.Local) }
	s.fire(context.Background())

	req.Equal(int32(1), quote.Load())
	req.Equal(int32(1), news.Load())
}

func TestScheduler_RejectsInvalidTime(t *testing.T) {
	req := require.New(t)
	s := New(slog.Default(), Job{Name: "broken", At: "25:99", Run: func(context.Context) error { return nil }})

	err := s.Run(context.Background())
	req.Error(err)
	req.Contains(err.Error(), "invalid time")
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	s := New(slog.Default()).WithClock(time.Now, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		req.Fail("scheduler should stop when the context is cancelled")
	}
}
