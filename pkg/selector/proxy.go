package selector

import (
	"fmt"
	"math"

	"github.com/HatiCode/streamsad/pkg/stats"
)

// WindowView is the sealed window's evidence handed to a proxy: everything
// it may use to judge detector quality, and nothing from the future.
type WindowView struct {
	// Order lists the active detector ids in invocation order.
	Order []string

	// Scores holds each detector's normalized scores for the window's
	// instances, aligned with Combined.
	Scores map[string][]float64

	// Combined holds the ensemble's combined score per window instance.
	Combined []float64

	// Labels holds ground-truth labels that became available during the
	// window, aligned with Combined; -1 marks an unavailable label.
	Labels []int
}

// labeledPairs extracts (score, label) pairs for positions whose label is
// available.
func (w *WindowView) labeledPairs(scores []float64) ([]int, []float64) {
	var labels []int
	var out []float64
	for i, y := range w.Labels {
		if y < 0 || i >= len(scores) {
			continue
		}
		labels = append(labels, y)
		out = append(out, scores[i])
	}
	return labels, out
}

// hasBothClasses reports whether at least one positive and one negative
// label became available in the window.
func (w *WindowView) hasBothClasses() bool {
	var pos, neg bool
	for _, y := range w.Labels {
		if y == 1 {
			pos = true
		} else if y == 0 {
			neg = true
		}
		if pos && neg {
			return true
		}
	}
	return false
}

// Proxy estimates each active detector's performance over a sealed window.
// Results are scaled to [-1, 1]: positive values reward a detector, negative
// values penalize it, zero leaves its relative weight untouched.
type Proxy interface {
	Name() string
	Score(w *WindowView) map[string]float64
}

// NewProxy creates a proxy by kind: "labels", "rank", "pseudo", or "auto".
// Contamination factors apply to the pseudo proxy only.
func NewProxy(kind string, contaminations []float64) (Proxy, error) {
	switch kind {
	case "labels":
		return labelProxy{}, nil
	case "rank":
		return rankProxy{}, nil
	case "pseudo":
		if len(contaminations) == 0 {
			contaminations = []float64{0.05, 0.2}
		}
		for _, c := range contaminations {
			if c < 0 || c >= 1 {
				return nil, fmt.Errorf("contamination factor must be in [0,1), got %v", c)
			}
		}
		return pseudoProxy{contaminations: contaminations}, nil
	case "auto":
		return autoProxy{labeled: labelProxy{}, fallback: rankProxy{}}, nil
	default:
		return nil, fmt.Errorf("unknown proxy: %s (must be labels, rank, pseudo, or auto)", kind)
	}
}

// labelProxy scores detectors by windowed ROC AUC against the labels that
// became available during the window, centered so 0.5 AUC maps to zero.
type labelProxy struct{}

func (labelProxy) Name() string { return "labels" }

func (labelProxy) Score(w *WindowView) map[string]float64 {
	out := make(map[string]float64, len(w.Order))
	for _, id := range w.Order {
		labels, scores := w.labeledPairs(w.Scores[id])
		auc := stats.ROCAUC(labels, scores)
		if math.IsNaN(auc) {
			out[id] = 0
			continue
		}
		out[id] = 2 * (auc - 0.5)
	}
	return out
}

// rankProxy scores detectors by how well their window ranking agrees with
// the ensemble's combined ranking. A detector that orders instances the way
// the ensemble consensus does is rewarded; one that contradicts it is
// penalized. Requires no labels at all.
type rankProxy struct{}

func (rankProxy) Name() string { return "rank" }

func (rankProxy) Score(w *WindowView) map[string]float64 {
	out := make(map[string]float64, len(w.Order))
	for _, id := range w.Order {
		out[id] = stats.Spearman(w.Scores[id], w.Combined)
	}
	return out
}

// pseudoProxy derives pseudo-labels from the ensemble's combined scores at
// each configured contamination factor and averages each detector's AUC
// against them. This is the expert-evaluation scheme for fully unlabeled
// streams.
type pseudoProxy struct {
	contaminations []float64
}

func (pseudoProxy) Name() string { return "pseudo" }

func (p pseudoProxy) Score(w *WindowView) map[string]float64 {
	out := make(map[string]float64, len(w.Order))
	if len(w.Combined) == 0 {
		for _, id := range w.Order {
			out[id] = 0
		}
		return out
	}

	labelSets := make([][]int, 0, len(p.contaminations))
	for _, c := range p.contaminations {
		labels := stats.PseudoLabels(w.Combined, c)
		if uniform(labels) {
			continue
		}
		labelSets = append(labelSets, labels)
	}

	for _, id := range w.Order {
		var sum float64
		var n int
		for _, labels := range labelSets {
			auc := stats.ROCAUC(labels, w.Scores[id])
			if math.IsNaN(auc) {
				continue
			}
			sum += 2 * (auc - 0.5)
			n++
		}
		if n == 0 {
			out[id] = 0
		} else {
			out[id] = sum / float64(n)
		}
	}
	return out
}

func uniform(labels []int) bool {
	for _, y := range labels[1:] {
		if y != labels[0] {
			return false
		}
	}
	return true
}

// autoProxy prefers the labeled signal whenever the window yielded at least
// one example of each class, falling back to rank agreement otherwise.
// Label availability is delayed or partial by design, so a mixed stream
// will typically alternate between the two.
type autoProxy struct {
	labeled  Proxy
	fallback Proxy
}

func (autoProxy) Name() string { return "auto" }

func (p autoProxy) Score(w *WindowView) map[string]float64 {
	if w.hasBothClasses() {
		return p.labeled.Score(w)
	}
	return p.fallback.Score(w)
}
