// Package evaluate runs the prequential benchmark loop: each instance is
// scored by every detector before any of them learns from it, scores are
// combined by the adaptive selector, and metrics are sealed per window.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/HatiCode/streamsad/pkg/dataset"
	"github.com/HatiCode/streamsad/pkg/memprobe"
	"github.com/HatiCode/streamsad/pkg/pool"
	"github.com/HatiCode/streamsad/pkg/selector"
	"github.com/HatiCode/streamsad/pkg/stats"
	"github.com/HatiCode/streamsad/pkg/storage"
)

// Hooks receive evaluation events. All fields are optional; the benchmark
// binary wires them to Prometheus.
type Hooks struct {
	// OnInstance fires once per detector invocation with its duration.
	OnInstance func(detector string, d time.Duration)

	// OnProcessed fires once per stream instance, after all detectors ran.
	OnProcessed func(index int)

	// OnWindow fires after each window seals with the window index, its
	// AUC (NaN when undefined), and the current weight vector.
	OnWindow func(index int, auc float64, weights map[string]float64)

	// OnSeal fires after each seal with the time spent computing window
	// metrics and updating weights.
	OnSeal func(d time.Duration)

	// OnDegraded fires when a detector is removed from the active set.
	OnDegraded func(detector, reason string)
}

// Config assembles an evaluation run.
type Config struct {
	Dataset  string
	Model    string
	Seed     int64
	RunCount int

	// WindowSize is the number of instances per metric window.
	WindowSize int

	// ProgressInterval is how many instances pass between progress log
	// records. Zero disables progress logging.
	ProgressInterval int

	Pool     *pool.Pool
	Selector *selector.Selector
	Labels   selector.LabelPolicy

	// Probe samples process memory at window seals. Optional; without it
	// memory entries are recorded as unavailable.
	Probe *memprobe.Probe

	// Store receives a run snapshot after every sealed window. Optional.
	Store storage.Store

	Logger *slog.Logger
	Hooks  Hooks
}

// Evaluator drives one benchmark run over one stream.
type Evaluator struct {
	cfg Config
	log *slog.Logger

	// baseline is the process RSS at run start; window and total memory
	// figures are deltas against it, in megabytes.
	baseline    float64
	hasBaseline bool
}

// New validates the configuration and returns an evaluator.
func New(cfg Config) (*Evaluator, error) {
	if cfg.Pool == nil {
		return nil, errors.New("evaluate: pool is required")
	}
	if cfg.Selector == nil {
		return nil, errors.New("evaluate: selector is required")
	}
	if cfg.Labels == nil {
		return nil, errors.New("evaluate: label policy is required")
	}
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("evaluate: window size must be positive, got %d", cfg.WindowSize)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{cfg: cfg, log: log}, nil
}

type reveal struct {
	pos   int
	label int
}

// Process consumes the stream to exhaustion and returns the run's metrics.
// If ctx is canceled, processing stops between instances and the metrics
// sealed so far are returned alongside the context error.
func (e *Evaluator) Process(ctx context.Context, stream *dataset.Stream) (*RunMetrics, error) {
	cfg := e.cfg
	start := time.Now()

	if cfg.Probe != nil {
		if rss, err := cfg.Probe.RSS(); err == nil {
			e.baseline = float64(rss)
			e.hasBaseline = true
		} else {
			e.log.Warn("memory probe failed, memory figures will be null", slog.Any("error", err))
		}
	}

	wm := WindowMetric{WindowSize: cfg.WindowSize}

	// Run-level score/label pairs, accumulated as labels become visible.
	var runLabels []int
	var runScores []float64

	// Combined score history for pairing late labels with their instance.
	var combinedAll []float64

	pending := make(map[int][]reveal)
	degraded := make(map[string]bool)

	// Current window state.
	var winScores map[string][]float64
	var winCombined []float64
	var winLabels []int
	resetWindow := func() {
		winScores = make(map[string][]float64, len(cfg.Pool.Order()))
		winCombined = winCombined[:0:0]
		winLabels = winLabels[:0:0]
	}
	resetWindow()

	windowIdx := 0
	processed := 0

	seal := func(final bool) {
		if len(winCombined) == 0 {
			return
		}
		sealStart := time.Now()

		auc := windowAUC(winLabels, winCombined)
		wm.AUCScores = append(wm.AUCScores, NullFloat(auc))
		wm.Runtimes = append(wm.Runtimes, time.Since(start).Seconds())
		wm.MemoryUsages = append(wm.MemoryUsages, e.sampleMemory())

		// Weights only adapt on full windows; a trailing partial window
		// is recorded but never trains the selector.
		if !final {
			view := &selector.WindowView{
				Order:    cfg.Pool.Live(),
				Scores:   winScores,
				Combined: winCombined,
				Labels:   winLabels,
			}
			cfg.Selector.Update(view)
		}

		weights := cfg.Selector.Weights()
		if cfg.Hooks.OnWindow != nil {
			cfg.Hooks.OnWindow(windowIdx, auc, weights)
		}
		if cfg.Hooks.OnSeal != nil {
			cfg.Hooks.OnSeal(time.Since(sealStart))
		}
		e.log.Info("window sealed",
			slog.Int("window", windowIdx),
			slog.Int("instances", processed),
			slog.Any("auc", NullFloat(auc)),
			slog.Int("degraded", len(degraded)))

		e.publishSnapshot(ctx, &wm, weights, processed, false)

		windowIdx++
		resetWindow()
	}

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		inst, ok := stream.Next()
		if !ok {
			break
		}

		samples := cfg.Pool.Collect(inst.X)

		// Freeze detectors that failed on this instance.
		for id, reason := range cfg.Pool.Warnings() {
			if degraded[id] {
				continue
			}
			degraded[id] = true
			cfg.Selector.Freeze(id)
			delete(winScores, id)
			if cfg.Hooks.OnDegraded != nil {
				cfg.Hooks.OnDegraded(id, reason)
			}
		}

		normScores := make(map[string]float64, len(samples))
		for _, s := range samples {
			normScores[s.ID] = cfg.Selector.Normalize(s.ID, s.Score)
			if cfg.Hooks.OnInstance != nil {
				cfg.Hooks.OnInstance(s.ID, s.Duration)
			}
		}
		combined := cfg.Selector.Combine(normScores)

		combinedAll = append(combinedAll, combined)
		winCombined = append(winCombined, combined)
		winLabels = append(winLabels, -1)
		for id, v := range normScores {
			winScores[id] = append(winScores[id], v)
		}

		// Schedule this instance's label per the policy, then apply every
		// label whose reveal index is now.
		if at := cfg.Labels.RevealAt(inst.Index); at >= 0 {
			pending[at] = append(pending[at], reveal{pos: inst.Index, label: inst.Label})
		}
		winStart := inst.Index - (len(winCombined) - 1)
		for _, r := range pending[inst.Index] {
			runLabels = append(runLabels, r.label)
			runScores = append(runScores, combinedAll[r.pos])
			if r.pos >= winStart {
				winLabels[r.pos-winStart] = r.label
			}
		}
		delete(pending, inst.Index)

		processed++
		if cfg.Hooks.OnProcessed != nil {
			cfg.Hooks.OnProcessed(inst.Index)
		}
		if len(winCombined) == cfg.WindowSize {
			seal(false)
		}
		if cfg.ProgressInterval > 0 && processed%cfg.ProgressInterval == 0 {
			e.log.Info("progress",
				slog.Int("instances", processed),
				slog.Int("remaining", stream.Remaining()),
				slog.Int("windows", windowIdx))
		}
	}

	// Trailing partial window.
	seal(true)

	metrics := &RunMetrics{
		Dataset:          cfg.Dataset,
		Model:            cfg.Model,
		AUC:              NullFloat(stats.ROCAUC(runLabels, runScores)),
		TotalRuntime:     time.Since(start).Seconds(),
		TotalMemoryUsage: e.totalMemory(&wm),
		Instances:        processed,
		RunCount:         cfg.RunCount,
		Seed:             cfg.Seed,
		WindowMetric:     wm,
	}

	e.publishSnapshot(ctx, &wm, cfg.Selector.Weights(), processed, runErr == nil)

	e.log.Info("run complete",
		slog.String("dataset", cfg.Dataset),
		slog.String("model", cfg.Model),
		slog.Any("auc", metrics.AUC),
		slog.Int("instances", processed),
		slog.Float64("runtime_seconds", metrics.TotalRuntime))

	return metrics, runErr
}

// windowAUC computes ROC AUC over the window positions whose label became
// visible before the seal. NaN when those labels are single-class or absent.
func windowAUC(labels []int, combined []float64) float64 {
	var ys []int
	var ss []float64
	for i, y := range labels {
		if y < 0 {
			continue
		}
		ys = append(ys, y)
		ss = append(ss, combined[i])
	}
	return stats.ROCAUC(ys, ss)
}

// sampleMemory returns the RSS growth since run start in megabytes.
func (e *Evaluator) sampleMemory() NullFloat {
	if e.cfg.Probe == nil || !e.hasBaseline {
		return NullFloat(math.NaN())
	}
	rss, err := e.cfg.Probe.RSS()
	if err != nil {
		e.log.Warn("memory probe failed, recording null", slog.Any("error", err))
		return NullFloat(math.NaN())
	}
	return NullFloat(math.Abs(float64(rss)-e.baseline) / (1024 * 1024))
}

// totalMemory is the end-of-run delta, falling back to the peak window
// sample when the final probe fails.
func (e *Evaluator) totalMemory(wm *WindowMetric) NullFloat {
	if total := e.sampleMemory(); total.Valid() {
		return total
	}
	peak := math.NaN()
	for _, m := range wm.MemoryUsages {
		if m.Valid() && (math.IsNaN(peak) || float64(m) > peak) {
			peak = float64(m)
		}
	}
	return NullFloat(peak)
}

func (e *Evaluator) publishSnapshot(ctx context.Context, wm *WindowMetric, weights map[string]float64, processed int, final bool) {
	if e.cfg.Store == nil {
		return
	}
	snap := storage.RunSnapshot{
		Dataset:      e.cfg.Dataset,
		Model:        e.cfg.Model,
		Seed:         e.cfg.Seed,
		RunCount:     e.cfg.RunCount,
		UpdatedAt:    time.Now(),
		Instances:    processed,
		WindowSize:   wm.WindowSize,
		AUCScores:    toNullable(wm.AUCScores),
		Runtimes:     append([]float64(nil), wm.Runtimes...),
		MemoryUsages: toNullable(wm.MemoryUsages),
		Weights:      weights,
		Final:        final,
	}
	if err := e.cfg.Store.Put(ctx, snap); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn("snapshot publish failed", slog.Any("error", err))
	}
}

func toNullable(vals []NullFloat) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if v.Valid() {
			f := float64(v)
			out[i] = &f
		}
	}
	return out
}
