package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"marlizintel.com/intel/internal/cli"
	"marlizintel.com/intel/internal/lifecycle"
)

func runSweep(args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	retentionDays := fs.Int("retention-days", 0, "Override RETENTION_DAYS for this run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "sweep does not accept positional args")
		return 2
	}

	cfg, logger, pool, cleanup, code := bootstrap(envLoader, 10*time.Second)
	if code != 0 {
		return code
	}
	defer cleanup()

	days := cfg.RetentionDays
	if *retentionDays > 0 {
		days = *retentionDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := lifecycle.NewService(pool, logger)
	stats, err := svc.SweepExpired(ctx, days)
	if err != nil {
		logger.Error().Err(err).Msg("retention sweep failed")
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		return 1
	}

	fmt.Printf("scanned=%d deleted=%d failed=%d retention_days=%d\n",
		stats.Scanned, stats.Deleted, stats.Failed, days)
	return 0
}
