package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"marlizintel.com/intel/internal/cli"
	"marlizintel.com/intel/internal/graveyard"
)

func runAudit(args []string) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	commit := fs.Bool("commit", false, "Remove zombie articles instead of only reporting them")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "audit does not accept positional args")
		return 2
	}

	_, logger, pool, cleanup, code := bootstrap(envLoader, 10*time.Second)
	if code != 0 {
		return code
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := graveyard.NewService(pool, logger)

	health, err := svc.Health(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("graveyard health failed")
		fmt.Fprintf(os.Stderr, "Audit failed: %v\n", err)
		return 1
	}
	fmt.Printf("live_articles=%d tombstones=%d conflicts=%d\n",
		health.LiveArticles, health.Tombstones, health.Conflicts)

	count, err := svc.Reconcile(ctx, *commit)
	if err != nil {
		logger.Error().Err(err).Msg("graveyard reconcile failed")
		fmt.Fprintf(os.Stderr, "Audit failed: %v\n", err)
		return 1
	}

	if *commit {
		fmt.Printf("zombies_removed=%d\n", count)
	} else {
		fmt.Printf("zombies_found=%d (dry run, pass --commit to remove)\n", count)
	}
	return 0
}
