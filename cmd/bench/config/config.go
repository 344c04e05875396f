// Package config provides configuration parsing and management for the
// benchmark binary.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence over environment variables. The Config struct contains
// all runtime configuration for a run including:
//   - Run identification (dataset, model, seed, run count)
//   - Evaluation parameters (window size, progress interval, output dir)
//   - Ensemble parameters (pool size, learning rate, proxy, normalization)
//   - Label availability policy (immediate, delayed, sparse)
//   - Snapshot storage settings (memory or Redis)
//   - HTTP surface and logging configuration
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
//
// Example usage:
//
//	cfg := config.ParseFlags()
//	if err := cfg.Validate(); err != nil { ... }
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds all benchmark configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	Dataset          string
	DataDir          string
	Model            string
	ExternalURL      string
	Seed             int64
	RunCount         int
	WindowSize       int
	ProgressInterval int
	OutputDir        string
	Verbose          bool

	NModels       int
	Eta           float64
	Proxy         string
	Contamination string
	Normalize     string
	LabelPolicy   string
	LabelDelay    int
	LabelRate     float64
}

// ParseFlags parses command-line flags and environment variables into a
// Config. Environment variables are used as fallbacks when flags are not
// provided.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ""), "HTTP listen address for /run/current, /healthz, /metrics (empty disables)")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Snapshot storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 30*time.Minute), "Redis snapshot TTL")

	flag.StringVar(&cfg.Dataset, "dataset", getEnv("DATASET", ""), "Dataset name, CSV path, or 'synthetic' (required)")
	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", "datasets"), "Directory searched for named datasets")
	flag.StringVar(&cfg.Model, "model", getEnv("MODEL", "adaptive"), "Model: adaptive, hst, loda, rshash, iforestasd, or external")
	flag.StringVar(&cfg.ExternalURL, "external-url", getEnv("EXTERNAL_URL", ""), "External detector endpoint (required when model=external)")
	flag.Int64Var(&cfg.Seed, "seed", getEnvInt64("SEED", 42), "Random seed for pool construction and detectors")
	flag.IntVar(&cfg.RunCount, "run-count", getEnvInt("RUN_COUNT", 0), "Run counter stamped into the artifact (0 omits it)")
	flag.IntVar(&cfg.WindowSize, "window-size", getEnvInt("WINDOW_SIZE", 1000), "Instances per metric window")
	flag.IntVar(&cfg.ProgressInterval, "progress-interval", getEnvInt("PROGRESS_INTERVAL", 1000), "Instances between progress log records (0 disables)")
	flag.StringVar(&cfg.OutputDir, "output-dir", getEnv("OUTPUT_DIR", "benchmark_results"), "Directory for run artifacts")
	flag.BoolVar(&cfg.Verbose, "verbose", getEnvBool("VERBOSE", true), "Log window summaries at info level")

	flag.IntVar(&cfg.NModels, "n-models", getEnvInt("N_MODELS", 5), "Adaptive pool size")
	flag.Float64Var(&cfg.Eta, "eta", getEnvFloat("ETA", 1.5), "Selector learning rate")
	flag.StringVar(&cfg.Proxy, "proxy", getEnv("PROXY", "auto"), "Performance proxy: auto, labels, rank, or pseudo")
	flag.StringVar(&cfg.Contamination, "contamination", getEnv("CONTAMINATION", "p5,p20"), "Pseudo-label contamination levels, p-notation or decimal (proxy=pseudo)")
	flag.StringVar(&cfg.Normalize, "normalize", getEnv("NORMALIZE", "minmax"), "Score normalization: minmax or none")
	flag.StringVar(&cfg.LabelPolicy, "label-policy", getEnv("LABEL_POLICY", "immediate"), "Label availability: immediate, delayed, or sparse")
	flag.IntVar(&cfg.LabelDelay, "label-delay", getEnvInt("LABEL_DELAY", 0), "Label delay in instances (label-policy=delayed)")
	flag.Float64Var(&cfg.LabelRate, "label-rate", getEnvFloat("LABEL_RATE", 1.0), "Label reveal probability (label-policy=sparse)")

	flag.Parse()

	return cfg
}

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]{0,251}[a-zA-Z0-9])?$`)

// validModels are the accepted -model values.
var validModels = map[string]bool{
	"adaptive":   true,
	"hst":        true,
	"loda":       true,
	"rshash":     true,
	"iforestasd": true,
	"external":   true,
}

// Validate checks the configuration before any instance is processed.
func (cfg *Config) Validate() error {
	if cfg.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}

	if !validModels[cfg.Model] {
		return fmt.Errorf("invalid model %q (must be adaptive, hst, loda, rshash, iforestasd, or external)", cfg.Model)
	}
	if cfg.Model == "external" && cfg.ExternalURL == "" {
		return fmt.Errorf("external-url is required when model=external")
	}

	if cfg.WindowSize <= 0 {
		return fmt.Errorf("window-size must be > 0, got %d", cfg.WindowSize)
	}
	if cfg.ProgressInterval < 0 {
		return fmt.Errorf("progress-interval cannot be negative")
	}
	if cfg.NModels <= 0 {
		return fmt.Errorf("n-models must be > 0, got %d", cfg.NModels)
	}
	if cfg.Eta <= 0 {
		return fmt.Errorf("eta must be > 0, got %v", cfg.Eta)
	}

	switch cfg.Proxy {
	case "auto", "labels", "rank", "pseudo":
	default:
		return fmt.Errorf("invalid proxy %q (must be auto, labels, rank, or pseudo)", cfg.Proxy)
	}
	if _, err := ParseContaminationLevels(cfg.Contamination); err != nil {
		return err
	}

	switch cfg.Normalize {
	case "minmax", "none":
	default:
		return fmt.Errorf("invalid normalize %q (must be minmax or none)", cfg.Normalize)
	}

	switch cfg.LabelPolicy {
	case "immediate":
	case "delayed":
		if cfg.LabelDelay < 0 {
			return fmt.Errorf("label-delay cannot be negative")
		}
	case "sparse":
		if cfg.LabelRate < 0 || cfg.LabelRate > 1 {
			return fmt.Errorf("label-rate must be in [0,1], got %v", cfg.LabelRate)
		}
	default:
		return fmt.Errorf("invalid label-policy %q (must be immediate, delayed, or sparse)", cfg.LabelPolicy)
	}

	switch cfg.Storage {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required when storage=redis")
		}
		if cfg.RedisDB < 0 {
			return fmt.Errorf("redis-db must be >= 0")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory or redis)", cfg.Storage)
	}

	if cfg.RunCount < 0 {
		return fmt.Errorf("run-count cannot be negative")
	}

	return nil
}

// ValidateDatasetName rejects dataset names that would not survive as an
// artifact file name or a store key.
func ValidateDatasetName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid dataset name %q (must be alphanumeric with dash/underscore/dot, 1-253 chars)", name)
	}
	return nil
}

// ParseContaminationLevels parses a comma-separated list of contamination
// levels from either p-notation (p5, p20) or decimal notation (0.05, 0.2).
//
// Examples:
//   - "p5,p20" → [0.05, 0.20]
//   - "0.05,0.2" → [0.05, 0.20]
//   - "p10" → [0.10]
//
// Returns an error if any entry is malformed or outside (0, 1).
func ParseContaminationLevels(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("contamination levels must not be empty")
	}

	parts := strings.Split(s, ",")
	levels := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)

		var level float64
		if strings.HasPrefix(strings.ToLower(part), "p") {
			percentile, err := strconv.ParseFloat(part[1:], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid p-notation %q: %w", part, err)
			}
			level = percentile / 100.0
		} else {
			var err error
			level, err = strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid contamination %q: %w", part, err)
			}
		}

		if level <= 0 || level >= 1 {
			return nil, fmt.Errorf("contamination %v out of range (0, 1)", level)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var i int64
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
