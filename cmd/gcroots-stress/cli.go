package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/obinnaokechukwu/gcroots/internal/stress"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config holds the parsed command line.
type Config struct {
	ScenarioPath string
	LogLevel     string
	LogFormat    string
	Dump         bool

	// Overrides; zero means "use the scenario value".
	Workers      int
	Objects      int
	Iterations   int
	CollectEvery time.Duration
	Shards       int
}

func (c *Config) apply(sc *stress.Scenario) {
	if c.Workers > 0 {
		sc.Workers = c.Workers
	}
	if c.Objects > 0 {
		sc.ObjectsPerWorker = c.Objects
	}
	if c.Iterations > 0 {
		sc.Iterations = c.Iterations
	}
	if c.CollectEvery > 0 {
		sc.CollectEvery = c.CollectEvery
	}
	if c.Shards > 0 {
		sc.Shards = c.Shards
	}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("gcroots-stress", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gcroots-stress - concurrent retain/release/collect stress test for gcroots stores.

Usage:
  gcroots-stress [options] [SCENARIO_FILE]

Arguments:
  SCENARIO_FILE
    Optional HCL file with a single scenario block.

Options:
`)
		flagSet.PrintDefaults()
	}

	cfg := &Config{}
	flagSet.IntVar(&cfg.Workers, "workers", 0, "Concurrent native callers (overrides the scenario).")
	flagSet.IntVar(&cfg.Objects, "objects", 0, "Objects each worker keeps retained (overrides the scenario).")
	flagSet.IntVar(&cfg.Iterations, "iterations", 0, "Retain/check/release rounds per worker (overrides the scenario).")
	flagSet.DurationVar(&cfg.CollectEvery, "collect-every", 0, "Pause between collector cycles (overrides the scenario).")
	flagSet.IntVar(&cfg.Shards, "shards", 0, "Number of registry shards; 0 or 1 uses a single lock.")
	flagSet.BoolVar(&cfg.Dump, "dump", false, "Print the registry debug dump after the run.")
	logFormatFlag := flagSet.String("log-format", "auto", "Log output format. Options: 'auto', 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "at most one scenario file may be given"}
	}
	cfg.ScenarioPath = flagSet.Arg(0)

	cfg.LogFormat = strings.ToLower(*logFormatFlag)
	switch cfg.LogFormat {
	case "auto", "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'auto', 'text' or 'json'"}
	}

	cfg.LogLevel = strings.ToLower(*logLevelFlag)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if cfg.Workers < 0 || cfg.Objects < 0 || cfg.Iterations < 0 || cfg.CollectEvery < 0 || cfg.Shards < 0 {
		return nil, false, &ExitError{Code: 2, Message: "numeric options must not be negative"}
	}
	return cfg, false, nil
}
