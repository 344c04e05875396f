// Command sweep drives batches of bench runs.
//
// It expands a sweep mode into a run plan and launches one bench child
// process per run, with bounded concurrency across runs:
//
//  1. all: every model crossed with every CSV dataset in the data dir
//  2. dataset <name>: every model against one dataset
//  3. model <name>: one model against every dataset
//  4. random: repeated runs with random seeds, each stamped with its
//     repetition number so artifacts do not collide
//
// Each child's stdout and stderr go to a per-run log file next to the
// artifacts in the output directory.
//
// Usage:
//
//	sweep -mode all -data-dir datasets -bench-bin ./bench
//	sweep -mode dataset -dataset shuttle
//	sweep -mode random -runs 20 -concurrency 4
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := ParseFlags()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	jobs, err := BuildJobs(cfg)
	if err != nil {
		logger.Error("failed to build run plan", "error", err)
		os.Exit(1)
	}
	logger.Info("starting sweep",
		"mode", cfg.Mode,
		"runs", len(jobs),
		"concurrency", cfg.Concurrency,
		"bench", cfg.BenchBin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Warn("received signal, stopping sweep", "signal", sig.String())
		cancel()
	}()

	runner := &Runner{cfg: cfg, logger: logger}
	failed := runner.Run(ctx, jobs)

	if ctx.Err() != nil {
		logger.Warn("sweep interrupted", "completed_or_failed", len(jobs), "failed", failed)
		os.Exit(2)
	}
	if failed > 0 {
		logger.Error("sweep finished with failures", "runs", len(jobs), "failed", failed)
		os.Exit(1)
	}
	logger.Info("sweep finished", "runs", len(jobs))
}
