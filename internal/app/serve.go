package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marlizintel.com/intel/internal/cli"
	"marlizintel.com/intel/internal/graveyard"
	"marlizintel.com/intel/internal/httpapi"
	"marlizintel.com/intel/internal/lifecycle"
	"marlizintel.com/intel/internal/scheduler"
	"marlizintel.com/intel/internal/viewcache"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 5*time.Minute, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	noScheduler := fs.Bool("no-scheduler", false, "Disable the in-process scheduler")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, logger, pool, cleanup, code := bootstrap(envLoader, 30*time.Second)
	if code != 0 {
		return code
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	ingestor := buildIngestService(cfg, pool, logger)
	transformer := buildSimplifierService(cfg, pool, logger)
	editorial := lifecycle.NewService(pool, logger)
	graves := graveyard.NewService(pool, logger)
	views := viewcache.New(viewcache.Options{})

	if cfg.SchedulerEnabled && !*noScheduler {
		sched := scheduler.New(logger, scheduler.Jobs{
			Fetch: func(ctx context.Context) error {
				stats, err := ingestor.RunCycle(ctx)
				if err != nil {
					return err
				}
				if stats.Admitted == 0 {
					return nil
				}
				_, err = transformer.RunBatch(ctx)
				return err
			},
			Process: func(ctx context.Context) error {
				_, err := transformer.RunBatch(ctx)
				return err
			},
			Sweep: func(ctx context.Context) error {
				_, err := editorial.SweepExpired(ctx, cfg.RetentionDays)
				return err
			},
		}, scheduler.Options{
			FetchInterval:   cfg.FetchInterval,
			ProcessInterval: cfg.ProcessInterval,
			SweepInterval:   cfg.SweepInterval,
		})
		go sched.Run(ctx)
	}

	srv := httpapi.NewServer(pool, logger, httpapi.Services{
		Ingestor:   ingestor,
		Simplifier: transformer,
		Editorial:  editorial,
		Graveyard:  graves,
		Views:      views,
	}, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		BaseURL:         cfg.SiteBaseURL,
		AdminTokenHash:  cfg.AdminTokenHash,
		CORSOrigins:     cfg.CORSAllowedOriginsList(),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
