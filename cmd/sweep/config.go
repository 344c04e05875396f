package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Config holds the sweep driver settings.
type Config struct {
	Mode        string
	Dataset     string
	Model       string
	DataDir     string
	OutputDir   string
	BenchBin    string
	Concurrency int
	Runs        int
	Seed        int64
	WindowSize  int
	LogLevel    string
	LogFormat   string
}

// ParseFlags reads configuration from command-line flags with environment
// variable fallbacks.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Mode, "mode", getEnv("SWEEP_MODE", "all"),
		"Sweep mode: all, dataset, model, or random")
	flag.StringVar(&cfg.Dataset, "dataset", getEnv("SWEEP_DATASET", ""),
		"Dataset name for mode=dataset (optional filter for mode=random)")
	flag.StringVar(&cfg.Model, "model", getEnv("SWEEP_MODEL", ""),
		"Model name for mode=model (optional override for mode=random)")
	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("SWEEP_DATA_DIR", "datasets"),
		"Directory holding CSV datasets")
	flag.StringVar(&cfg.OutputDir, "output-dir", getEnv("SWEEP_OUTPUT_DIR", "benchmark_results"),
		"Directory for result artifacts and run logs")
	flag.StringVar(&cfg.BenchBin, "bench-bin", getEnv("SWEEP_BENCH_BIN", "bench"),
		"Path to the bench binary")
	flag.IntVar(&cfg.Concurrency, "concurrency", getEnvInt("SWEEP_CONCURRENCY", 1),
		"Number of bench processes to run in parallel")
	flag.IntVar(&cfg.Runs, "runs", getEnvInt("SWEEP_RUNS", 10),
		"Repetitions per dataset for mode=random")
	flag.Int64Var(&cfg.Seed, "seed", getEnvInt64("SWEEP_SEED", 42),
		"Seed for deterministic modes and the random mode's seed source")
	flag.IntVar(&cfg.WindowSize, "window-size", getEnvInt("SWEEP_WINDOW_SIZE", 1000),
		"Window size passed to each bench run")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("SWEEP_LOG_LEVEL", "info"),
		"Log level passed to each bench run")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("SWEEP_LOG_FORMAT", "text"),
		"Log format passed to each bench run")

	flag.Parse()
	return cfg
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Mode {
	case "all", "dataset", "model", "random":
	default:
		return fmt.Errorf("invalid mode: %s (must be all, dataset, model, or random)", c.Mode)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", c.Runs)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be at least 1, got %d", c.WindowSize)
	}
	if c.BenchBin == "" {
		return fmt.Errorf("bench binary path must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
