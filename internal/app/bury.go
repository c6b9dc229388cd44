package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"marlizintel.com/intel/internal/cli"
	"marlizintel.com/intel/internal/graveyard"
)

func runBury(args []string) int {
	fs := flag.NewFlagSet("bury", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	reason := fs.String("reason", "manual removal", "Burial reason recorded on the tombstone")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: intel bury <slug> [--reason <text>]")
		return 2
	}
	slug := strings.TrimSpace(fs.Arg(0))
	if slug == "" {
		fmt.Fprintln(os.Stderr, "slug must not be empty")
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
	buried, err := svc.Bury(ctx, slug, strings.TrimSpace(*reason))
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("bury failed")
		fmt.Fprintf(os.Stderr, "Bury failed: %v\n", err)
		return 1
	}

	// Burying a live slug leaves a zombie row until the conflict rule
	// runs; resolve immediately so the URL flips to 410 now.
	if _, err := svc.Resolve(ctx, slug); err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("post-bury resolve failed")
		fmt.Fprintf(os.Stderr, "Warning: tombstone written but zombie cleanup failed: %v\n", err)
	}

	if buried {
		fmt.Printf("buried slug=%s reason=%s\n", slug, strings.TrimSpace(*reason))
	} else {
		fmt.Printf("slug=%s was already buried\n", slug)
	}
	return 0
}
