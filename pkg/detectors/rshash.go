package detectors

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// RSHash implements randomized subspace hashing for streaming anomaly
// detection. Each component hashes a random subset of normalized features
// into grid cells; cell counts decay exponentially over time, so the score
// reflects how often similar instances appeared recently. Rarely hit cells
// score as anomalous (low log-count).
//
// Like HalfSpaceTrees, RSHash needs the feature range up front to normalize
// each dimension into [0, 1].
type RSHash struct {
	name          string
	decay         float64
	numComponents int
	numHash       int
	samplingPts   int
	dataMin       []float64
	dataMax       []float64

	sketches   []map[string]sketchCell
	alpha      [][]float64
	f          []float64
	effectiveS float64
	index      int
	dims       [][]int
	rng        *rand.Rand
}

type sketchCell struct {
	tstamp int
	weight float64
}

// NewRSHash creates an RSHash detector over the given feature range.
func NewRSHash(name string, featureMins, featureMaxes []float64, samplingPoints int, decay float64, numComponents, numHash int, seed int64) *RSHash {
	r := &RSHash{
		name:          name,
		decay:         decay,
		numComponents: numComponents,
		numHash:       numHash,
		samplingPts:   samplingPoints,
		dataMin:       append([]float64(nil), featureMins...),
		dataMax:       append([]float64(nil), featureMaxes...),
	}
	r.Reset(seed)
	return r
}

// Name returns the detector identifier.
func (r *RSHash) Name() string { return r.name }

// Reset re-draws all random components and clears the sketches.
func (r *RSHash) Reset(seed int64) {
	r.rng = rand.New(rand.NewSource(seed))
	dim := len(r.dataMin)

	r.effectiveS = math.Max(1000, 1.0/(1.0-math.Pow(2, -r.decay)))

	low := 1.0 / math.Sqrt(r.effectiveS)
	high := 1.0 - low
	r.f = make([]float64, r.numComponents)
	for i := range r.f {
		r.f[i] = low + r.rng.Float64()*(high-low)
	}

	r.sketches = make([]map[string]sketchCell, r.numHash)
	for i := range r.sketches {
		r.sketches[i] = make(map[string]sketchCell)
	}

	// Dimensions where min == max carry no signal and are never sampled.
	var usable []int
	for i := 0; i < dim; i++ {
		if math.Abs(r.dataMax[i]-r.dataMin[i]) > 1e-10 {
			usable = append(usable, i)
		}
	}

	r.dims = make([][]int, r.numComponents)
	for i := 0; i < r.numComponents; i++ {
		maxTerm := math.Max(2, 1.0/r.f[i])
		commonTerm := math.Log(r.effectiveS) / math.Log(maxTerm)
		lowValue := 1.0 + 0.5*commonTerm
		highValue := commonTerm

		ri := 1
		if math.Abs(math.Floor(lowValue)-math.Floor(highValue)) >= 1e-10 {
			lo := int(lowValue)
			hi := int(highValue)
			if hi < lo {
				lo, hi = hi, lo
			}
			ri = lo + r.rng.Intn(hi-lo+1)
			if ri > len(usable) {
				ri = len(usable)
			}
		}
		if ri < 1 && len(usable) > 0 {
			ri = 1
		}

		remaining := append([]int(nil), usable...)
		selected := make([]int, 0, ri)
		for len(selected) < ri && len(remaining) > 0 {
			idx := r.rng.Intn(len(remaining))
			selected = append(selected, remaining[idx])
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
		r.dims[i] = selected
	}

	r.alpha = make([][]float64, r.numComponents)
	for i := range r.alpha {
		a := make([]float64, len(r.dims[i]))
		for j := range a {
			a[j] = r.rng.Float64() * r.f[i]
		}
		r.alpha[i] = a
	}

	r.index = 1 - r.samplingPts
}

func (r *RSHash) cellKey(component int, x []float64) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(component))
	for i, dimIdx := range r.dims[component] {
		span := r.dataMax[dimIdx] - r.dataMin[dimIdx]
		normalized := 0.0
		if math.Abs(span) > 1e-10 {
			normalized = (x[dimIdx] - r.dataMin[dimIdx]) / span
		}
		y := math.Floor((normalized + r.alpha[component][i]) / r.f[component])
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(int(y)))
	}
	return sb.String()
}

// ObserveScore scores x against the decayed sketches, then records it.
func (r *RSHash) ObserveScore(x []float64) (float64, error) {
	var scoreInstance float64

	for c := 0; c < r.numComponents; c++ {
		key := r.cellKey(c, x)

		minCount := math.MaxFloat64
		for w := 0; w < r.numHash; w++ {
			tstamp, wt := r.index, 0.0
			if cell, ok := r.sketches[w][key]; ok {
				tstamp, wt = cell.tstamp, cell.weight
			}
			decayed := wt * math.Pow(2, -r.decay*float64(r.index-tstamp))
			if decayed < minCount {
				minCount = decayed
			}
			r.sketches[w][key] = sketchCell{tstamp: r.index, weight: decayed + 1}
		}

		scoreInstance += math.Log(1 + minCount)
	}

	// Periodically drop cells whose decayed weight is negligible.
	if r.index%1000 == 0 {
		const threshold = 1e-6
		for w := 0; w < r.numHash; w++ {
			for key, cell := range r.sketches[w] {
				decayed := cell.weight * math.Pow(2, -r.decay*float64(r.index-cell.tstamp))
				if decayed <= threshold {
					delete(r.sketches[w], key)
				}
			}
		}
	}

	r.index++

	// Low counts mean rarely visited cells; negate so rare is high.
	return -scoreInstance / float64(r.numComponents), nil
}

// MemoryBytes approximates the footprint of the sketches.
func (r *RSHash) MemoryBytes() uint64 {
	var cells uint64
	for _, sk := range r.sketches {
		cells += uint64(len(sk))
	}
	const cellSize = 48 // key header + timestamp + weight
	return cells * cellSize
}
