// Package detectors provides streaming anomaly detection algorithms that
// learn and score one instance at a time.
//
// Each detector implements the Detector interface and can be plugged into
// the streamsad evaluation pipeline. Available detectors include:
//   - HalfSpaceTrees — mass-based half-space trees over a known feature range
//   - LODA           — lightweight online detector of anomalies (random projections + histograms)
//   - RSHash         — randomized subspace hashing with exponential decay
//   - IForestASD     — isolation forest with sliding-window drift retraining
//   - External       — delegates scoring to an out-of-process HTTP service
//
// Detectors are intentionally self-contained. They own their model state
// exclusively, are mutated strictly in stream order, and report an
// approximate memory footprint without mutating anything.
package detectors

import "fmt"

// Detector is the common contract for all streaming anomaly detectors.
//
// ObserveScore scores the instance against the state learned from all
// previous instances, then folds the instance into the model. Higher scores
// represent more anomalous instances. Scores are not assumed bounded or
// comparable in magnitude across detector types.
type Detector interface {
	// Name returns a short, unique identifier for the detector instance.
	// Example: "hst", "loda-2".
	Name() string

	// ObserveScore scores x and then updates internal state with it.
	// It must not fail for ordinary numeric input, including all-zero or
	// constant feature vectors.
	ObserveScore(x []float64) (float64, error)

	// Reset reinitializes internal state from the given seed. Used only at
	// run start.
	Reset(seed int64)

	// MemoryBytes reports the approximate model footprint. It must not
	// mutate detector state.
	MemoryBytes() uint64
}

// StateError reports a detector invoked outside its lifecycle contract,
// for example after it has been marked degraded.
type StateError struct {
	Detector string
	Reason   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("detector %s: %s", e.Detector, e.Reason)
}

// RuntimeError wraps a scoring failure from a single detector. The pool
// absorbs these by degrading the detector; they never abort a run.
type RuntimeError struct {
	Detector string
	Index    int
	Err      error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("detector %s failed at instance %d: %v", e.Detector, e.Index, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
