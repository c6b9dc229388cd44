package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRun_InvokesJobsUntilCanceled(t *testing.T) {
	t.Parallel()

	var fetches, processes int64
	s := New(zerolog.Nop(), Jobs{
		Fetch:   func(context.Context) error { atomic.AddInt64(&fetches, 1); return nil },
		Process: func(context.Context) error { atomic.AddInt64(&processes, 1); return nil },
	}, Options{
		FetchInterval:   5 * time.Millisecond,
		ProcessInterval: 5 * time.Millisecond,
		SweepInterval:   time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	if atomic.LoadInt64(&fetches) == 0 {
		t.Fatalf("fetch job never ran")
	}
	if atomic.LoadInt64(&processes) == 0 {
		t.Fatalf("process job never ran")
	}
}

func TestRun_FailingJobKeepsScheduling(t *testing.T) {
	t.Parallel()

	var attempts int64
	s := New(zerolog.Nop(), Jobs{
		Process: func(context.Context) error {
			atomic.AddInt64(&attempts, 1)
			return fmt.Errorf("transient failure")
		},
	}, Options{
		FetchInterval:   time.Hour,
		ProcessInterval: 5 * time.Millisecond,
		SweepInterval:   time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	if atomic.LoadInt64(&attempts) < 2 {
		t.Fatalf("failing job must be retried on the next tick, attempts=%d", attempts)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(zerolog.Nop(), Jobs{}, Options{})
	if s.opts.FetchInterval != defaultFetchInterval {
		t.Fatalf("unexpected fetch interval %v", s.opts.FetchInterval)
	}
	if s.opts.ProcessInterval != defaultProcessInterval {
		t.Fatalf("unexpected process interval %v", s.opts.ProcessInterval)
	}
	if s.opts.SweepInterval != defaultSweepInterval {
		t.Fatalf("unexpected sweep interval %v", s.opts.SweepInterval)
	}
}
