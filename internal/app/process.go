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

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "process does not accept positional args")
		return 2
	}

	cfg, logger, pool, cleanup, code := bootstrap(envLoader, 10*time.Second)
	if code != 0 {
		return code
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := buildSimplifierService(cfg, pool, logger)
	result, err := svc.RunBatch(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("transformation batch failed")
		fmt.Fprintf(os.Stderr, "Process failed: %v\n", err)
		return 1
	}

	fmt.Printf("processed=%d failed=%d skipped=%d remaining=%d rate_limited=%t timestamp=%s\n",
		result.Processed, result.Failed, result.Skipped, result.Remaining,
		result.RateLimited, result.Timestamp.Format(time.RFC3339))
	return 0
}
