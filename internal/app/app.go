package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "process":
		return runProcess(args[1:])
	case "sweep":
		return runSweep(args[1:])
	case "bury":
		return runBury(args[1:])
	case "audit":
		return runAudit(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "intel CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  intel <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  fetch       Run one ingestion cycle against the configured sources")
	fmt.Fprintln(os.Stderr, "  process     Transform one batch of raw articles with the AI model")
	fmt.Fprintln(os.Stderr, "  sweep       Delete expired unprotected articles and tombstone them")
	fmt.Fprintln(os.Stderr, "  bury        Tombstone a slug so its URL answers 410 Gone")
	fmt.Fprintln(os.Stderr, "  audit       Report graveyard health and optionally remove zombies")
	fmt.Fprintln(os.Stderr, "  hash-token  Print the bcrypt hash for an admin token")
	fmt.Fprintln(os.Stderr, "  serve       Start the API server with the in-process scheduler")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"intel <command> -h\" for command-specific flags.")
}
