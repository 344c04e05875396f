package detectors

import (
	"math"
	"math/rand"
)

// LODA implements the Lightweight Online Detector of Anomalies. Instances
// are projected onto sparse random vectors; each projection feeds a
// one-dimensional histogram, and the score is the averaged negative log
// density across projections.
//
// The detector is dimension-agnostic: projections and histograms are built
// lazily from the first observed instance.
type LODA struct {
	name          string
	numBins       int
	numRandomCuts int
	seed          int64
	rng           *rand.Rand

	toInit      bool
	numFeatures int
	weights     []float64
	projections [][]float64
	histograms  [][]float64
	limits      [][]float64
}

// NewLODA creates a LODA detector with numRandomCuts sparse projections of
// numBins histogram bins each.
func NewLODA(name string, numBins, numRandomCuts int, seed int64) *LODA {
	l := &LODA{
		name:          name,
		numBins:       numBins,
		numRandomCuts: numRandomCuts,
	}
	l.Reset(seed)
	return l
}

// Name returns the detector identifier.
func (l *LODA) Name() string { return l.name }

// Reset drops all projections and histograms.
func (l *LODA) Reset(seed int64) {
	l.seed = seed
	l.rng = rand.New(rand.NewSource(seed))
	l.toInit = true
	l.numFeatures = 0
	l.weights = nil
	l.projections = nil
	l.histograms = nil
	l.limits = nil
}

func (l *LODA) init(numFeatures int) {
	l.numFeatures = numFeatures

	l.weights = make([]float64, l.numRandomCuts)
	for i := range l.weights {
		l.weights[i] = 1.0 / float64(l.numRandomCuts)
	}

	nNonzero := int(math.Sqrt(float64(numFeatures)))
	nZero := numFeatures - nNonzero

	l.projections = make([][]float64, l.numRandomCuts)
	for i := range l.projections {
		proj := make([]float64, numFeatures)
		for j := range proj {
			proj[j] = l.rng.Float64()*2 - 1
		}
		for _, idx := range l.rng.Perm(numFeatures)[:nZero] {
			proj[idx] = 0
		}
		l.projections[i] = proj
	}

	l.histograms = make([][]float64, l.numRandomCuts)
	l.limits = make([][]float64, l.numRandomCuts)
	for i := range l.histograms {
		l.histograms[i] = make([]float64, l.numBins)
		l.limits[i] = make([]float64, l.numBins+1)
	}
	l.toInit = false
}

func (l *LODA) project(i int, x []float64) float64 {
	var p float64
	for j := 0; j < l.numFeatures && j < len(x); j++ {
		p += x[j] * l.projections[i][j]
	}
	return p
}

// ObserveScore scores x against the current histograms, then updates them.
func (l *LODA) ObserveScore(x []float64) (float64, error) {
	score := l.score(x)
	l.fit(x)
	return score, nil
}

func (l *LODA) score(x []float64) float64 {
	if l.toInit {
		return 0
	}

	var score float64
	for i := 0; i < l.numRandomCuts; i++ {
		projected := l.project(i, x)

		binIdx := 0
		for binIdx < l.numBins && projected > l.limits[i][binIdx] {
			binIdx++
		}
		if binIdx > l.numBins-1 {
			binIdx = l.numBins - 1
		}

		score += -l.weights[i] * math.Log(l.histograms[i][binIdx])
	}
	return score / float64(l.numRandomCuts)
}

func (l *LODA) fit(x []float64) {
	if l.toInit {
		l.init(len(x))
	}

	for i := 0; i < l.numRandomCuts; i++ {
		projected := l.project(i, x)

		if l.limits[i][0] == 0 && l.limits[i][l.numBins] == 0 {
			// First observation for this projection: seed the bin edges
			// around it.
			min := projected - 0.1
			max := projected + 0.1
			step := (max - min) / float64(l.numBins)
			for b := 0; b <= l.numBins; b++ {
				l.limits[i][b] = min + step*float64(b)
			}
		}

		binIdx := 0
		for binIdx < l.numBins && projected > l.limits[i][binIdx+1] {
			binIdx++
		}
		if binIdx > l.numBins-1 {
			binIdx = l.numBins - 1
		}

		l.histograms[i][binIdx]++

		var binSum float64
		for _, v := range l.histograms[i] {
			binSum += v
		}
		if binSum > 0 {
			for b := range l.histograms[i] {
				l.histograms[i][b] /= binSum
			}
		}
		for b := range l.histograms[i] {
			if l.histograms[i][b] < 1e-12 {
				l.histograms[i][b] = 1e-12
			}
		}
	}
}

// MemoryBytes approximates the footprint of projections and histograms.
func (l *LODA) MemoryBytes() uint64 {
	if l.toInit {
		return 0
	}
	perCut := uint64(l.numFeatures+2*l.numBins+1) * 8
	return uint64(l.numRandomCuts) * perCut
}
