// Command bench executes one streaming anomaly-detection benchmark run.
//
// The benchmark:
//  1. Loads a labeled dataset (CSV, HTTP, or synthetic)
//  2. Builds a detector pool (adaptive randomized ensemble or a single algorithm)
//  3. Replays the stream prequentially: score each instance, then learn from it
//  4. Seals windowed metrics and adapts ensemble weights per window
//  5. Writes a JSON artifact and, optionally, serves live run state over HTTP
//
// With -listen set, the benchmark serves:
//   - GET /run/current - Latest snapshot of the running benchmark
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	bench \
//	  -dataset=shuttle \
//	  -model=adaptive \
//	  -seed=42 \
//	  -window-size=1000 \
//	  -output-dir=benchmark_results
//
// Environment variables mirror the flags:
//
//	DATASET           - Dataset name, CSV path, or "synthetic" (required)
//	MODEL             - adaptive, hst, loda, rshash, iforestasd, or external (default: adaptive)
//	SEED              - Random seed (default: 42)
//	WINDOW_SIZE       - Instances per metric window (default: 1000)
//	N_MODELS          - Adaptive pool size (default: 5)
//	ETA               - Selector learning rate (default: 1.5)
//	PROXY             - Performance proxy: auto, labels, rank, pseudo (default: auto)
//	LABEL_POLICY      - immediate, delayed, sparse (default: immediate)
//	STORAGE           - Snapshot store: memory, redis (default: memory)
//	LISTEN            - HTTP listen address (default: disabled)
//	LOG_LEVEL         - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT        - Logging format: text, json (default: text)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/streamsad/cmd/bench/config"
	"github.com/HatiCode/streamsad/cmd/bench/metrics"
	"github.com/HatiCode/streamsad/cmd/bench/router"
	"github.com/HatiCode/streamsad/pkg/httpx"
	"github.com/HatiCode/streamsad/pkg/storage"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logger.Info("starting streamsad bench",
		"version", version,
		"dataset", cfg.Dataset,
		"model", cfg.Model,
		"seed", cfg.Seed,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateDatasetName(ds.Name); err != nil {
		logger.Error("dataset name unusable", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New(ds.Name, cfg.Model)

	var httpServer *httpx.Server
	if cfg.Listen != "" {
		key := storage.RunKey(ds.Name, cfg.Model, cfg.Seed)
		mux := router.SetupRoutes(store, key, logger)
		httpServer = httpx.NewServer(cfg.Listen, mux, logger)
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error("http server failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	runErr := run(ctx, cfg, ds, store, m, logger)

	if httpServer != nil {
		if err := httpServer.Stop(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}

	switch {
	case runErr == nil:
		logger.Info("run finished")
	case errors.Is(runErr, context.Canceled):
		logger.Warn("run interrupted, partial artifact written")
		os.Exit(2)
	default:
		logger.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}
