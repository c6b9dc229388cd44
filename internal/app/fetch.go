package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"marlizintel.com/intel/internal/cli"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "fetch does not accept positional args")
		return 2
	}

	cfg, logger, pool, cleanup, code := bootstrap(envLoader, 10*time.Second)
	if code != 0 {
		return code
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := buildIngestService(cfg, pool, logger)
	stats, err := svc.RunCycle(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("ingestion cycle failed")
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		return 1
	}

	fmt.Printf("fetched=%d admitted=%d rejected=%d duplicates=%d\n",
		stats.Fetched, stats.Admitted, stats.Rejected, stats.Duplicates)
	return 0
}
