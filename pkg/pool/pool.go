// Package pool manages the set of detectors participating in a run.
//
// The pool normalizes heterogeneous detector algorithms behind one contract
// so the evaluator and selector never branch on concrete detector types. It
// owns failure isolation: a detector that returns an error, panics, or
// produces a non-finite score is marked degraded for the remainder of the
// run and is never invoked again. The run continues on the surviving
// detectors; a warning is logged and counted, never escalated.
package pool

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/HatiCode/streamsad/pkg/detectors"
)

// Sample is one detector's contribution for one instance.
type Sample struct {
	ID       string
	Score    float64
	Duration time.Duration
}

// Pool holds detectors in a fixed, deterministic invocation order.
type Pool struct {
	order     []string
	byID      map[string]detectors.Detector
	degraded  map[string]string // id → reason
	instances int
	logger    *slog.Logger
}

// New creates a pool from the given detectors. Order of the slice fixes the
// invocation order for the whole run. Detector names must be unique.
func New(ds []detectors.Detector, logger *slog.Logger) (*Pool, error) {
	if len(ds) == 0 {
		return nil, fmt.Errorf("detector pool cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		byID:     make(map[string]detectors.Detector, len(ds)),
		degraded: make(map[string]string),
		logger:   logger,
	}
	for _, d := range ds {
		if _, dup := p.byID[d.Name()]; dup {
			return nil, fmt.Errorf("duplicate detector name %q", d.Name())
		}
		p.order = append(p.order, d.Name())
		p.byID[d.Name()] = d
	}
	return p, nil
}

// Order returns detector ids in invocation order, including degraded ones.
func (p *Pool) Order() []string { return p.order }

// Live returns ids of detectors still participating, in invocation order.
func (p *Pool) Live() []string {
	live := make([]string, 0, len(p.order))
	for _, id := range p.order {
		if _, bad := p.degraded[id]; !bad {
			live = append(live, id)
		}
	}
	return live
}

// Degraded reports whether the detector has been withdrawn from the run.
func (p *Pool) Degraded(id string) bool {
	_, bad := p.degraded[id]
	return bad
}

// Reset reinitializes every detector from the seed and clears degradation.
// Used only at run start.
func (p *Pool) Reset(seed int64) {
	for _, id := range p.order {
		p.byID[id].Reset(seed)
	}
	p.degraded = make(map[string]string)
	p.instances = 0
}

// Collect invokes every live detector on x, in order, timing each call.
// Detectors that fail are degraded in place and omitted from the returned
// samples; the caller substitutes the ensemble's combined score for them
// from this instance onward.
func (p *Pool) Collect(x []float64) []Sample {
	samples := make([]Sample, 0, len(p.order))
	for _, id := range p.order {
		if _, bad := p.degraded[id]; bad {
			continue
		}

		start := time.Now()
		score, err := p.observe(id, x)
		elapsed := time.Since(start)

		if err != nil {
			p.degrade(id, err)
			continue
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			p.degrade(id, &detectors.RuntimeError{
				Detector: id,
				Index:    p.instances,
				Err:      fmt.Errorf("non-finite score %v", score),
			})
			continue
		}

		samples = append(samples, Sample{ID: id, Score: score, Duration: elapsed})
	}
	p.instances++
	return samples
}

// observe shields the pool from panicking detector implementations.
func (p *Pool) observe(id string, x []float64) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &detectors.RuntimeError{
				Detector: id,
				Index:    p.instances,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return p.byID[id].ObserveScore(x)
}

func (p *Pool) degrade(id string, err error) {
	p.degraded[id] = err.Error()
	p.logger.Warn("detector degraded, run continues",
		"detector", id,
		"instance", p.instances,
		"error", err,
	)
}

// Warnings returns the degradation reasons accumulated so far, keyed by
// detector id.
func (p *Pool) Warnings() map[string]string {
	out := make(map[string]string, len(p.degraded))
	for id, reason := range p.degraded {
		out[id] = reason
	}
	return out
}

// MemoryBytes sums the self-reported footprint of every detector, degraded
// ones included: their model state is frozen, not released. Probing never
// mutates detector state.
func (p *Pool) MemoryBytes() uint64 {
	var total uint64
	for _, id := range p.order {
		total += p.byID[id].MemoryBytes()
	}
	return total
}
