package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HatiCode/streamsad/cmd/bench/config"
	"github.com/HatiCode/streamsad/cmd/bench/metrics"
	"github.com/HatiCode/streamsad/pkg/dataset"
	"github.com/HatiCode/streamsad/pkg/detectors"
	"github.com/HatiCode/streamsad/pkg/evaluate"
	"github.com/HatiCode/streamsad/pkg/memprobe"
	"github.com/HatiCode/streamsad/pkg/pool"
	"github.com/HatiCode/streamsad/pkg/selector"
	"github.com/HatiCode/streamsad/pkg/storage"
)

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if !cfg.Verbose && level < slog.LevelWarn {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// loadDataset resolves -dataset: "synthetic", an http(s) URL, a CSV path, or
// a name looked up under -data-dir.
func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	name := cfg.Dataset

	switch {
	case name == "synthetic":
		return dataset.Synthetic(dataset.SyntheticConfig{
			Instances:     10000,
			Dims:          5,
			Contamination: 0.05,
			Seed:          cfg.Seed,
		})

	case strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://"):
		src := &dataset.HTTPSource{
			URL:          name,
			Name:         datasetNameFromURL(name),
			FeaturesPath: "data.#.features",
			LabelsPath:   "data.#.label",
		}
		return src.Fetch(ctx)

	case strings.HasSuffix(name, ".csv"):
		return dataset.LoadCSV(name)

	default:
		return dataset.LoadCSV(filepath.Join(cfg.DataDir, name+".csv"))
	}
}

// datasetNameFromURL derives an artifact-safe dataset name from a source
// URL: host plus path, with every character outside the dataset name
// charset mapped to a dash.
func datasetNameFromURL(raw string) string {
	name := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-._")
	if slug == "" {
		return "remote"
	}
	return slug
}

// buildDetectors constructs the run's pool members from the model flag.
func buildDetectors(cfg *config.Config, bounds detectors.Bounds) ([]detectors.Detector, error) {
	if cfg.Model == "adaptive" {
		return detectors.RandomPool(cfg.NModels, bounds, cfg.Seed)
	}
	d, err := detectors.New(cfg.Model, bounds, cfg.Seed, cfg.ExternalURL)
	if err != nil {
		return nil, err
	}
	return []detectors.Detector{d}, nil
}

// newStore builds the snapshot store. The returned closer is a no-op for the
// memory backend.
func newStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Storage {
	case "redis":
		store, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}

// run executes one benchmark run end to end and writes the artifact.
func run(ctx context.Context, cfg *config.Config, ds *dataset.Dataset, store storage.Store, m *metrics.Metrics, logger *slog.Logger) error {
	mins, maxes := ds.FeatureBounds()
	members, err := buildDetectors(cfg, detectors.Bounds{Mins: mins, Maxes: maxes})
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}

	p, err := pool.New(members, logger)
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}
	p.Reset(cfg.Seed)

	levels, err := config.ParseContaminationLevels(cfg.Contamination)
	if err != nil {
		return err
	}
	proxy, err := selector.NewProxy(cfg.Proxy, levels)
	if err != nil {
		return err
	}
	sel, err := selector.New(p.Order(), selector.Config{
		Eta:          cfg.Eta,
		Proxy:        proxy,
		NormCapacity: cfg.WindowSize,
		NoNormalize:  cfg.Normalize == "none",
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build selector: %w", err)
	}

	policy, err := selector.NewLabelPolicy(cfg.LabelPolicy, cfg.LabelDelay, cfg.LabelRate, cfg.Seed)
	if err != nil {
		return err
	}

	probe, err := memprobe.New()
	if err != nil {
		logger.Warn("memory probe unavailable, memory figures will be null", "error", err)
		m.RecordError("memprobe", "init")
		probe = nil
	}

	degraded := 0
	ev, err := evaluate.New(evaluate.Config{
		Dataset:          ds.Name,
		Model:            cfg.Model,
		Seed:             cfg.Seed,
		RunCount:         cfg.RunCount,
		WindowSize:       cfg.WindowSize,
		ProgressInterval: cfg.ProgressInterval,
		Pool:             p,
		Selector:         sel,
		Labels:           policy,
		Probe:            probe,
		Store:            store,
		Logger:           logger,
		Hooks: evaluate.Hooks{
			OnInstance: func(detector string, d time.Duration) {
				m.RecordObserve(detector, d.Seconds())
			},
			OnProcessed: func(int) {
				m.RecordInstance()
			},
			OnWindow: func(_ int, auc float64, weights map[string]float64) {
				m.RecordWindow(auc, weights)
			},
			OnSeal: func(d time.Duration) {
				m.RecordSeal(d.Seconds())
			},
			OnDegraded: func(detector, reason string) {
				degraded++
				m.RecordDegraded(degraded)
				m.RecordError("pool", "detector_degraded")
			},
		},
	})
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"dataset", ds.Name,
		"model", cfg.Model,
		"seed", cfg.Seed,
		"instances", ds.Len(),
		"dims", ds.Dims(),
		"anomalies", ds.Anomalies(),
		"pool_size", len(members),
		"window_size", cfg.WindowSize)

	result, runErr := ev.Process(ctx, ds.Stream())
	if runErr != nil && result == nil {
		return runErr
	}

	path, err := result.WriteFile(cfg.OutputDir)
	if err != nil {
		m.RecordError("report", "write")
		return err
	}
	logger.Info("artifact written", "path", path)

	return runErr
}
