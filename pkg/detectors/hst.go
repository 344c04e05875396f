package detectors

import (
	"math"
	"math/rand"
)

// HalfSpaceTrees implements streaming anomaly detection with an ensemble of
// half-space trees. Each tree recursively bisects the known feature range at
// random attributes; node mass accumulated over a reference window estimates
// density, and sparsely populated regions score as anomalous.
//
// The feature range must be known up front (feature mins and maxes), which
// the dataset loader provides. Scores are negated masses so that higher
// values indicate more anomalous instances.
type HalfSpaceTrees struct {
	name          string
	windowSize    int
	maxDepth      int
	numTrees      int
	featureMins   []float64
	featureMaxes  []float64
	roots         []*hstNode
	isFirstWindow bool
	step          int
	rng           *rand.Rand
}

type hstNode struct {
	left       *hstNode
	right      *hstNode
	rMass      int
	lMass      int
	splitAtt   int
	splitValue float64
	depth      int
}

// NewHalfSpaceTrees creates a half-space trees detector over the given
// feature range. windowSize controls how often reference mass is refreshed.
func NewHalfSpaceTrees(name string, featureMins, featureMaxes []float64, windowSize, numTrees, maxDepth int, seed int64) *HalfSpaceTrees {
	h := &HalfSpaceTrees{
		name:         name,
		windowSize:   windowSize,
		maxDepth:     maxDepth,
		numTrees:     numTrees,
		featureMins:  append([]float64(nil), featureMins...),
		featureMaxes: append([]float64(nil), featureMaxes...),
	}
	h.Reset(seed)
	return h
}

// Name returns the detector identifier.
func (h *HalfSpaceTrees) Name() string { return h.name }

// Reset rebuilds all trees from the seed.
func (h *HalfSpaceTrees) Reset(seed int64) {
	h.rng = rand.New(rand.NewSource(seed))
	h.roots = make([]*hstNode, 0, h.numTrees)
	h.isFirstWindow = true
	h.step = 0
	for i := 0; i < h.numTrees; i++ {
		mins := append([]float64(nil), h.featureMins...)
		maxes := append([]float64(nil), h.featureMaxes...)
		h.roots = append(h.roots, h.buildTree(mins, maxes, 0))
	}
}

func (h *HalfSpaceTrees) buildTree(mins, maxes []float64, depth int) *hstNode {
	if depth == h.maxDepth {
		return &hstNode{depth: depth}
	}

	q := h.rng.Intn(len(mins))
	p := (maxes[q] + mins[q]) / 2.0

	origMax := maxes[q]
	maxes[q] = p
	left := h.buildTree(append([]float64(nil), mins...), append([]float64(nil), maxes...), depth+1)
	maxes[q] = origMax
	mins[q] = p
	right := h.buildTree(mins, maxes, depth+1)

	return &hstNode{
		left:       left,
		right:      right,
		splitAtt:   q,
		splitValue: p,
		depth:      depth,
	}
}

// ObserveScore scores x against the reference mass, then records it.
func (h *HalfSpaceTrees) ObserveScore(x []float64) (float64, error) {
	var s float64
	for _, root := range h.roots {
		s += h.scoreTree(x, root)
	}
	// Negate so sparse regions (low mass) score high.
	score := -s

	h.step++
	for _, root := range h.roots {
		h.updateMass(x, root, h.isFirstWindow)
	}
	if h.step%h.windowSize == 0 {
		h.isFirstWindow = false
		for _, root := range h.roots {
			rotateMass(root)
		}
	}

	return score, nil
}

func (h *HalfSpaceTrees) scoreTree(x []float64, n *hstNode) float64 {
	if n.depth == h.maxDepth {
		return 0
	}
	next := n.left
	if x[n.splitAtt] > n.splitValue {
		next = n.right
	}
	return float64(n.rMass)*math.Pow(2, float64(n.depth)) + h.scoreTree(x, next)
}

func (h *HalfSpaceTrees) updateMass(x []float64, n *hstNode, refWindow bool) {
	if refWindow {
		// During the first window the reference mass doubles as latest mass
		// so the detector can score before the first rotation.
		n.rMass++
		n.lMass++
	} else {
		n.lMass++
	}
	if n.depth < h.maxDepth {
		next := n.left
		if x[n.splitAtt] > n.splitValue {
			next = n.right
		}
		h.updateMass(x, next, refWindow)
	}
}

func rotateMass(n *hstNode) {
	n.rMass = n.lMass
	n.lMass = 0
	if n.left != nil {
		rotateMass(n.left)
	}
	if n.right != nil {
		rotateMass(n.right)
	}
}

// MemoryBytes approximates the footprint of the tree ensemble.
func (h *HalfSpaceTrees) MemoryBytes() uint64 {
	// Full binary trees of height maxDepth.
	nodes := uint64(h.numTrees) * (uint64(1)<<(uint(h.maxDepth)+1) - 1)
	const nodeSize = 56 // two pointers, two masses, split attribute/value, depth
	return nodes*nodeSize + uint64(len(h.featureMins))*16
}
