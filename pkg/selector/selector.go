// Package selector maintains an adaptive weighting over a pool of anomaly
// detectors. Per-detector scores are normalized against their own trailing
// history, combined by weighted mean, and the weights follow an
// exponentiated-gradient update driven by a per-window performance proxy.
package selector

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Config holds the selector's tunables.
type Config struct {
	// Eta is the learning rate of the exponentiated-gradient update.
	// Must be positive.
	Eta float64

	// Proxy estimates per-detector performance on each sealed window.
	Proxy Proxy

	// NormCapacity bounds each detector's trailing score history used for
	// min-max normalization. Zero means unbounded.
	NormCapacity int

	// NoNormalize passes raw detector scores straight into the combination.
	NoNormalize bool

	// Logger receives weight-update records. Nil disables logging.
	Logger *slog.Logger
}

// Selector combines detector scores into a single anomaly score and adapts
// the combination weights from sealed-window feedback.
type Selector struct {
	eta    float64
	proxy  Proxy
	logger *slog.Logger
	noNorm bool

	order   []string
	weights map[string]float64
	frozen  map[string]bool
	norms   map[string]*rollingNorm

	// warm flips true once the first window seals; before that every
	// combination is an unweighted mean.
	warm bool
}

// New creates a selector over the given detector ids with uniform initial
// weights.
func New(ids []string, cfg Config) (*Selector, error) {
	if len(ids) == 0 {
		return nil, errors.New("selector requires at least one detector")
	}
	if cfg.Eta <= 0 || math.IsNaN(cfg.Eta) || math.IsInf(cfg.Eta, 0) {
		return nil, fmt.Errorf("eta must be positive and finite, got %v", cfg.Eta)
	}
	if cfg.Proxy == nil {
		return nil, errors.New("selector requires a performance proxy")
	}

	s := &Selector{
		eta:     cfg.Eta,
		proxy:   cfg.Proxy,
		logger:  cfg.Logger,
		noNorm:  cfg.NoNormalize,
		order:   make([]string, len(ids)),
		weights: make(map[string]float64, len(ids)),
		frozen:  make(map[string]bool),
		norms:   make(map[string]*rollingNorm, len(ids)),
	}
	copy(s.order, ids)

	w := 1.0 / float64(len(ids))
	for _, id := range ids {
		if _, dup := s.weights[id]; dup {
			return nil, fmt.Errorf("duplicate detector id: %s", id)
		}
		s.weights[id] = w
		s.norms[id] = newRollingNorm(cfg.NormCapacity)
	}
	return s, nil
}

// Normalize maps a detector's raw score into [0, 1] against that detector's
// trailing history and records the raw value for future calls. The current
// score never participates in its own normalization range.
func (s *Selector) Normalize(id string, raw float64) float64 {
	if s.noNorm {
		return raw
	}
	n, ok := s.norms[id]
	if !ok {
		return 0.5
	}
	return n.Normalize(raw)
}

// Combine folds normalized per-detector scores into one ensemble score.
// During warmup it is the unweighted mean; afterwards it is the weighted
// mean with weights renormalized over the detectors actually present in
// scores, so a degraded detector's frozen mass never skews the result.
func (s *Selector) Combine(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.5
	}
	if !s.warm {
		var sum float64
		for _, v := range scores {
			sum += v
		}
		return sum / float64(len(scores))
	}

	var mass, sum float64
	for _, id := range s.order {
		v, ok := scores[id]
		if !ok {
			continue
		}
		w := s.weights[id]
		mass += w
		sum += w * v
	}
	if mass <= 0 {
		// All contributing weight has collapsed; fall back to the mean.
		var total float64
		for _, v := range scores {
			total += v
		}
		return total / float64(len(scores))
	}
	return sum / mass
}

// Update applies one exponentiated-gradient step from a sealed window.
// Frozen detectors keep their weight as-is; the active weights absorb the
// update and are renormalized so the full set still sums to one.
func (s *Selector) Update(view *WindowView) {
	perf := s.proxy.Score(view)

	var frozenMass float64
	for id, f := range s.frozen {
		if f {
			frozenMass += s.weights[id]
		}
	}
	if frozenMass >= 1 {
		s.warm = true
		return
	}

	var activeMass float64
	for _, id := range s.order {
		if s.frozen[id] {
			continue
		}
		p := perf[id]
		if math.IsNaN(p) {
			p = 0
		}
		p = math.Max(-1, math.Min(1, p))
		s.weights[id] *= math.Exp(s.eta * p)
		activeMass += s.weights[id]
	}
	if activeMass > 0 {
		scale := (1 - frozenMass) / activeMass
		for _, id := range s.order {
			if s.frozen[id] {
				continue
			}
			s.weights[id] *= scale
		}
	}
	s.warm = true

	if s.logger != nil {
		s.logger.Debug("selector weights updated",
			slog.String("proxy", s.proxy.Name()),
			slog.Any("weights", s.Weights()))
	}
}

// Freeze pins a detector's weight at its current value and removes it from
// future updates. Used when a detector degrades mid-run.
func (s *Selector) Freeze(id string) {
	if _, ok := s.weights[id]; ok {
		s.frozen[id] = true
	}
}

// Warm reports whether at least one window has sealed.
func (s *Selector) Warm() bool { return s.warm }

// Weights returns a copy of the current weight vector.
func (s *Selector) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.weights))
	for id, w := range s.weights {
		out[id] = w
	}
	return out
}
