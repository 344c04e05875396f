package selector

import (
	"fmt"
	"math/rand"
)

// LabelPolicy models when, if ever, an instance's ground-truth label becomes
// visible to the evaluation pipeline. In real streaming deployments labels
// arrive late or not at all; the policy makes that a pluggable, testable
// strategy instead of a hidden assumption.
//
// RevealAt is called exactly once per instance, in stream order, which keeps
// stochastic policies deterministic for a fixed seed.
type LabelPolicy interface {
	Name() string

	// RevealAt returns the instance index at which the label for instance t
	// becomes visible, or -1 if it never does. The result is never less
	// than t.
	RevealAt(t int) int
}

// ImmediateLabels reveals every label with its own instance. This is the
// deferred-evaluation setting used for benchmarking.
type ImmediateLabels struct{}

func (ImmediateLabels) Name() string       { return "immediate" }
func (ImmediateLabels) RevealAt(t int) int { return t }

// DelayedLabels reveals every label a fixed number of instances late.
type DelayedLabels struct {
	Delay int
}

func (p DelayedLabels) Name() string       { return "delayed" }
func (p DelayedLabels) RevealAt(t int) int { return t + p.Delay }

// SparseLabels reveals each label with a fixed probability, immediately or
// never. The draw sequence is owned by the policy's seed.
type SparseLabels struct {
	Rate float64
	rng  *rand.Rand
}

// NewSparseLabels creates a sparse policy revealing labels at the given
// rate.
func NewSparseLabels(rate float64, seed int64) *SparseLabels {
	return &SparseLabels{Rate: rate, rng: rand.New(rand.NewSource(seed))}
}

func (p *SparseLabels) Name() string { return "sparse" }

func (p *SparseLabels) RevealAt(t int) int {
	if p.rng.Float64() < p.Rate {
		return t
	}
	return -1
}

// NewLabelPolicy creates a policy by kind: "immediate", "delayed", or
// "sparse".
func NewLabelPolicy(kind string, delay int, rate float64, seed int64) (LabelPolicy, error) {
	switch kind {
	case "immediate":
		return ImmediateLabels{}, nil
	case "delayed":
		if delay < 0 {
			return nil, fmt.Errorf("label delay must be non-negative, got %d", delay)
		}
		return DelayedLabels{Delay: delay}, nil
	case "sparse":
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("label rate must be in [0,1], got %v", rate)
		}
		return NewSparseLabels(rate, seed), nil
	default:
		return nil, fmt.Errorf("unknown label policy: %s (must be immediate, delayed, or sparse)", kind)
	}
}
