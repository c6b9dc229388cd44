package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultFetchInterval   = 12 * time.Hour
	defaultProcessInterval = 30 * time.Minute
	defaultSweepInterval   = 24 * time.Hour
)

// Jobs are the periodic pipeline stages. A nil job is skipped.
type Jobs struct {
	Fetch   func(ctx context.Context) error
	Process func(ctx context.Context) error
	Sweep   func(ctx context.Context) error
}

type Options struct {
	FetchInterval   time.Duration
	ProcessInterval time.Duration
	SweepInterval   time.Duration
}

// Scheduler runs the pipeline jobs on independent tickers from a single
// goroutine, so jobs never overlap each other.
type Scheduler struct {
	jobs   Jobs
	logger zerolog.Logger
	opts   Options
}

func New(logger zerolog.Logger, jobs Jobs, opts Options) *Scheduler {
	if opts.FetchInterval <= 0 {
		opts.FetchInterval = defaultFetchInterval
	}
	if opts.ProcessInterval <= 0 {
		opts.ProcessInterval = defaultProcessInterval
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
		opts:   opts,
	}
}

// Run blocks until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil {
		return
	}

	s.logger.Info().
		Dur("fetch_interval", s.opts.FetchInterval).
		Dur("process_interval", s.opts.ProcessInterval).
		Dur("sweep_interval", s.opts.SweepInterval).
		Msg("scheduler started")

	fetchTicker := time.NewTicker(s.opts.FetchInterval)
	defer fetchTicker.Stop()
	processTicker := time.NewTicker(s.opts.ProcessInterval)
	defer processTicker.Stop()
	sweepTicker := time.NewTicker(s.opts.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-fetchTicker.C:
			s.runJob(ctx, "fetch", s.jobs.Fetch)
		case <-processTicker.C:
			s.runJob(ctx, "process", s.jobs.Process)
		case <-sweepTicker.C:
			s.runJob(ctx, "sweep", s.jobs.Sweep)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, job func(ctx context.Context) error) {
	if job == nil || ctx.Err() != nil {
		return
	}

	started := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", time.Since(started)).Msg("scheduled job failed")
		return
	}
	s.logger.Debug().Str("job", name).Dur("elapsed", time.Since(started)).Msg("scheduled job finished")
}
