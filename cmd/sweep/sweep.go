package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Models are the benchmarkable model kinds, in sweep order.
var Models = []string{"adaptive", "hst", "loda", "rshash", "iforestasd"}

// Job is one bench invocation.
type Job struct {
	Dataset  string
	Model    string
	Seed     int64
	RunCount int
}

// Args renders the bench command line for the job.
func (j Job) Args(cfg *Config) []string {
	args := []string{
		"-dataset", j.Dataset,
		"-model", j.Model,
		"-seed", strconv.FormatInt(j.Seed, 10),
		"-window-size", strconv.Itoa(cfg.WindowSize),
		"-output-dir", cfg.OutputDir,
		"-data-dir", cfg.DataDir,
		"-log-level", cfg.LogLevel,
		"-log-format", cfg.LogFormat,
	}
	if j.RunCount > 0 {
		args = append(args, "-run-count", strconv.Itoa(j.RunCount))
	}
	return args
}

func (j Job) String() string {
	if j.RunCount > 0 {
		return fmt.Sprintf("%s/%s seed=%d run=%d", j.Dataset, j.Model, j.Seed, j.RunCount)
	}
	return fmt.Sprintf("%s/%s seed=%d", j.Dataset, j.Model, j.Seed)
}

// listDatasets returns the base names of every CSV under dir, sorted.
func listDatasets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no CSV datasets in %s", dir)
	}
	return names, nil
}

// BuildJobs expands the sweep mode into the list of runs to launch.
func BuildJobs(cfg *Config) ([]Job, error) {
	var datasets []string
	var err error

	switch cfg.Mode {
	case "all":
		datasets, err = listDatasets(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return crossJobs(datasets, Models, cfg.Seed), nil

	case "dataset":
		if cfg.Dataset == "" {
			return nil, fmt.Errorf("mode=dataset requires -dataset")
		}
		return crossJobs([]string{cfg.Dataset}, Models, cfg.Seed), nil

	case "model":
		if cfg.Model == "" {
			return nil, fmt.Errorf("mode=model requires -model")
		}
		datasets, err = listDatasets(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return crossJobs(datasets, []string{cfg.Model}, cfg.Seed), nil

	case "random":
		if cfg.Dataset != "" {
			datasets = []string{cfg.Dataset}
		} else {
			datasets, err = listDatasets(cfg.DataDir)
			if err != nil {
				return nil, err
			}
		}
		model := cfg.Model
		if model == "" {
			model = "adaptive"
		}
		rng := rand.New(rand.NewSource(cfg.Seed))
		var jobs []Job
		for _, ds := range datasets {
			for run := 1; run <= cfg.Runs; run++ {
				jobs = append(jobs, Job{
					Dataset:  ds,
					Model:    model,
					Seed:     rng.Int63n(1_000_000),
					RunCount: run,
				})
			}
		}
		return jobs, nil

	default:
		return nil, fmt.Errorf("invalid mode %q (must be all, dataset, model, or random)", cfg.Mode)
	}
}

func crossJobs(datasets, models []string, seed int64) []Job {
	jobs := make([]Job, 0, len(datasets)*len(models))
	for _, ds := range datasets {
		for _, model := range models {
			jobs = append(jobs, Job{Dataset: ds, Model: model, Seed: seed})
		}
	}
	return jobs
}

// Runner fans jobs out to bench child processes with bounded concurrency.
type Runner struct {
	cfg    *Config
	logger *slog.Logger
}

// Run launches every job and returns the number of failures. Cancellation
// stops in-flight children and skips the rest.
func (r *Runner) Run(ctx context.Context, jobs []Job) int {
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			err := r.runOne(ctx, job)
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				r.logger.Error("run failed", "job", job.String(), "elapsed", elapsed, "error", err)
				return
			}
			r.logger.Info("run complete", "job", job.String(), "elapsed", elapsed)
		}(job)
	}
	wg.Wait()
	return failed
}

func (r *Runner) runOne(ctx context.Context, job Job) error {
	cmd := exec.CommandContext(ctx, r.cfg.BenchBin, job.Args(r.cfg)...)

	logPath := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("%s_%s_%d.log", job.Model, job.Dataset, job.Seed))
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("bench exited: %w (log: %s)", err, logPath)
	}
	return nil
}
