package detectors

import (
	"math"
	"math/rand"
)

// IForestASD implements isolation forest for streaming data (iForestASD).
// Instances accumulate in a sliding window; once the window fills, the
// anomaly rate of the window decides whether the forest is retrained on it
// (concept drift) or the window is discarded and the current forest kept.
//
// Until the first window fills there is no forest and every instance scores
// zero.
type IForestASD struct {
	name string

	windowSize           int
	numTrees             int
	maxSamples           int
	heightLimit          int
	contamination        float64
	anomalyRateThreshold float64

	curWindow       [][]float64
	curWindowScores []float64
	refWindowReady  bool
	trees           []*asdNode
	numFeatures     int
	rng             *rand.Rand
}

type asdNode struct {
	splitFeature int // -1 for leaf
	splitValue   float64
	size         int
	left         *asdNode
	right        *asdNode
}

// NewIForestASD creates an iForestASD detector.
func NewIForestASD(name string, windowSize, numTrees, maxSamples int, contamination, anomalyRateThreshold float64, seed int64) *IForestASD {
	f := &IForestASD{
		name:                 name,
		windowSize:           windowSize,
		numTrees:             numTrees,
		maxSamples:           maxSamples,
		heightLimit:          int(math.Ceil(math.Log2(float64(maxSamples)))),
		contamination:        contamination,
		anomalyRateThreshold: anomalyRateThreshold,
	}
	f.Reset(seed)
	return f
}

// Name returns the detector identifier.
func (f *IForestASD) Name() string { return f.name }

// Reset drops the forest and all window state.
func (f *IForestASD) Reset(seed int64) {
	f.rng = rand.New(rand.NewSource(seed))
	f.curWindow = make([][]float64, 0, f.windowSize)
	f.curWindowScores = f.curWindowScores[:0]
	f.refWindowReady = false
	f.trees = nil
	f.numFeatures = 0
}

// ObserveScore scores x with the current forest, then appends it to the
// sliding window, retraining on window boundaries when drift is detected.
func (f *IForestASD) ObserveScore(x []float64) (float64, error) {
	if f.numFeatures == 0 {
		f.numFeatures = len(x)
	}

	score := f.score(x)

	xi := append([]float64(nil), x...)
	f.curWindow = append(f.curWindow, xi)
	if len(f.trees) > 0 {
		f.curWindowScores = append(f.curWindowScores, score)
	}

	if len(f.curWindow) >= f.windowSize {
		if !f.refWindowReady {
			f.fitModel(f.curWindow)
			f.refWindowReady = true
		} else if f.anomalyRate() >= f.anomalyRateThreshold {
			// Concept drift: retrain on the current window.
			f.fitModel(f.curWindow)
		}
		f.curWindow = f.curWindow[:0]
		f.curWindowScores = f.curWindowScores[:0]
	}

	return score, nil
}

func (f *IForestASD) score(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}

	var totalPath float64
	for _, tree := range f.trees {
		totalPath += float64(pathLen(tree, x, 0))
	}
	avgPath := totalPath / float64(len(f.trees))

	expected := asdAvgPathLength(f.maxSamples)
	if expected <= 0 {
		return 1
	}
	return math.Pow(2, -avgPath/expected)
}

func (f *IForestASD) fitModel(window [][]float64) {
	f.trees = make([]*asdNode, 0, f.numTrees)
	for i := 0; i < f.numTrees; i++ {
		sampleSize := f.maxSamples
		if sampleSize > len(window) {
			sampleSize = len(window)
		}
		sampled := make([][]float64, sampleSize)
		for j := range sampled {
			sampled[j] = window[f.rng.Intn(len(window))]
		}
		f.trees = append(f.trees, f.buildTree(sampled, 0))
	}
}

func (f *IForestASD) buildTree(data [][]float64, height int) *asdNode {
	n := &asdNode{splitFeature: -1, size: len(data)}
	if len(data) <= 1 || height >= f.heightLimit {
		return n
	}

	feature := f.rng.Intn(f.numFeatures)

	minVal, maxVal := data[0][feature], data[0][feature]
	for _, row := range data[1:] {
		if row[feature] < minVal {
			minVal = row[feature]
		}
		if row[feature] > maxVal {
			maxVal = row[feature]
		}
	}
	if math.Abs(maxVal-minVal) < 1e-10 {
		return n
	}

	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	var left, right [][]float64
	for _, row := range data {
		if row[feature] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return n
	}

	n.splitFeature = feature
	n.splitValue = splitValue
	n.left = f.buildTree(left, height+1)
	n.right = f.buildTree(right, height+1)
	return n
}

func pathLen(n *asdNode, x []float64, height int) int {
	if n.splitFeature < 0 {
		return height
	}
	if x[n.splitFeature] < n.splitValue {
		return pathLen(n.left, x, height+1)
	}
	return pathLen(n.right, x, height+1)
}

func asdAvgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	return math.Log(float64(n)) + 0.5772156649
}

// anomalyRate computes the fraction of the current window at or above the
// contamination cutoff score.
func (f *IForestASD) anomalyRate() float64 {
	if len(f.curWindowScores) == 0 {
		return 0
	}

	scores := append([]float64(nil), f.curWindowScores...)
	sortDescending(scores)
	cutoffIdx := int(math.Floor(f.contamination * float64(len(scores))))
	cutoff := 0.0
	if cutoffIdx < len(scores) {
		cutoff = scores[cutoffIdx]
	}

	count := 0
	for _, s := range scores {
		if s >= cutoff {
			count++
		}
	}
	return float64(count) / float64(len(scores))
}

func sortDescending(s []float64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] > s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// MemoryBytes approximates the footprint of the forest and window buffer.
func (f *IForestASD) MemoryBytes() uint64 {
	var nodes uint64
	for _, tree := range f.trees {
		nodes += countNodes(tree)
	}
	const nodeSize = 48
	window := uint64(len(f.curWindow)) * uint64(f.numFeatures) * 8
	return nodes*nodeSize + window
}

func countNodes(n *asdNode) uint64 {
	if n == nil {
		return 0
	}
	return 1 + countNodes(n.left) + countNodes(n.right)
}
