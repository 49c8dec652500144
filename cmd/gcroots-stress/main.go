// Command gcroots-stress hammers a gcroots store with concurrent
// retain/release traffic while a host collector runs, and fails if a
// retained object is ever reclaimed.
//
// Usage:
//
//	gcroots-stress [options] [SCENARIO_FILE]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/obinnaokechukwu/gcroots/internal/ctxlog"
	"github.com/obinnaokechukwu/gcroots/internal/stress"
)

// main is the entrypoint for the gcroots-stress command.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the command logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, shouldExit, err := Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)

	sc := stress.DefaultScenario()
	if cfg.ScenarioPath != "" {
		sc, err = stress.LoadFile(ctx, cfg.ScenarioPath)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
	}
	cfg.apply(&sc)

	report, err := stress.Run(ctx, sc)
	if report != nil {
		printReport(outW, report, cfg.Dump)
	}
	return err
}

func printReport(w io.Writer, r *stress.Report, dump bool) {
	fmt.Fprintf(w, "scenario %q: %d workers, %d objects each, %d iterations, %d shards\n",
		r.Scenario.Name, r.Scenario.Workers, r.Scenario.ObjectsPerWorker, r.Scenario.Iterations, r.Scenario.Shards)
	fmt.Fprintf(w, "duration:     %s\n", r.Duration)
	fmt.Fprintf(w, "collections:  %d\n", r.Collections)
	fmt.Fprintf(w, "retains:      %d\n", r.Stats.Retains)
	fmt.Fprintf(w, "releases:     %d\n", r.Stats.Releases)
	fmt.Fprintf(w, "sentinels:    %d\n", r.Stats.SentinelHits)
	fmt.Fprintf(w, "compactions:  %d\n", r.Stats.Compactions)
	fmt.Fprintf(w, "violations:   %d\n", r.Violations)
	fmt.Fprintf(w, "remaining:    %d\n", r.Remaining)
	fmt.Fprintf(w, "leaked:       %d\n", r.Leaked)
	if dump {
		fmt.Fprint(w, r.Dump)
	}
}
