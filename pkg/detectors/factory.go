package detectors

import (
	"fmt"
	"math/rand"
)

// Bounds carries the per-feature value range some detectors need up front.
type Bounds struct {
	Mins  []float64
	Maxes []float64
}

// New creates a single detector of the given kind with its default
// hyperparameters. This is the central extension point for adding detector
// types.
//
// Supported kinds: "hst", "loda", "rshash", "iforestasd", "external".
func New(kind string, bounds Bounds, seed int64, endpoint string) (Detector, error) {
	switch kind {
	case "hst":
		return NewHalfSpaceTrees(kind, bounds.Mins, bounds.Maxes, 100, 25, 10, seed), nil
	case "loda":
		return NewLODA(kind, 100, 10, seed), nil
	case "rshash":
		return NewRSHash(kind, bounds.Mins, bounds.Maxes, 1000, 0.015, 100, 1, seed), nil
	case "iforestasd":
		return NewIForestASD(kind, 2048, 50, 256, 0.1, 0.2, seed), nil
	case "external":
		if endpoint == "" {
			return nil, fmt.Errorf("external detector requires an endpoint")
		}
		return NewExternal(kind, endpoint), nil
	default:
		return nil, fmt.Errorf("unknown detector kind: %s (must be hst, loda, rshash, iforestasd, or external)", kind)
	}
}

// RandomPool draws n detectors with randomized types and hyperparameters,
// mirroring how the adaptive ensemble seeds its candidate set. The draw is
// fully determined by the seed.
func RandomPool(n int, bounds Bounds, seed int64) ([]Detector, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", n)
	}

	rng := rand.New(rand.NewSource(seed))
	kinds := []string{"hst", "loda", "rshash", "iforestasd"}

	pool := make([]Detector, 0, n)
	for i := 0; i < n; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		name := fmt.Sprintf("%s-%d", kind, i)
		detSeed := rng.Int63()

		switch kind {
		case "hst":
			numTrees := choiceInt(rng, 10, 25)
			maxDepth := choiceInt(rng, 10, 15)
			windowSize := choiceInt(rng, 50, 100)
			pool = append(pool, NewHalfSpaceTrees(name, bounds.Mins, bounds.Maxes, windowSize, numTrees, maxDepth, detSeed))
		case "loda":
			numBins := choiceInt(rng, 50, 100, 150)
			numCuts := choiceInt(rng, 5, 10)
			pool = append(pool, NewLODA(name, numBins, numCuts, detSeed))
		case "rshash":
			samplingPts := choiceInt(rng, 500, 1000)
			components := choiceInt(rng, 50, 100)
			pool = append(pool, NewRSHash(name, bounds.Mins, bounds.Maxes, samplingPts, 0.015, components, 1, detSeed))
		case "iforestasd":
			windowSize := choiceInt(rng, 1024, 2048)
			numTrees := choiceInt(rng, 25, 50)
			maxSamples := choiceInt(rng, 128, 256)
			pool = append(pool, NewIForestASD(name, windowSize, numTrees, maxSamples, 0.1, 0.2, detSeed))
		}
	}
	return pool, nil
}

func choiceInt(rng *rand.Rand, options ...int) int {
	return options[rng.Intn(len(options))]
}
