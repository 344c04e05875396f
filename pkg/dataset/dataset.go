// Package dataset loads labeled benchmark streams from CSV files, HTTP
// endpoints, or a synthetic generator, and replays them as single-pass
// instance streams.
package dataset

import (
	"fmt"
	"math"
)

// Dataset is a fully materialized labeled stream. Rows are replayed in
// stored order; there is no shuffling.
type Dataset struct {
	Name string

	// X holds one feature vector per instance. All rows have the same
	// dimensionality.
	X [][]float64

	// Y holds the ground-truth label per instance: 1 anomalous, 0 normal.
	Y []int
}

// Len returns the number of instances.
func (d *Dataset) Len() int { return len(d.X) }

// Dims returns the feature dimensionality, or 0 for an empty dataset.
func (d *Dataset) Dims() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Anomalies returns the number of positive labels.
func (d *Dataset) Anomalies() int {
	n := 0
	for _, y := range d.Y {
		if y == 1 {
			n++
		}
	}
	return n
}

// FeatureBounds returns the per-dimension minimum and maximum over the
// whole dataset. Detectors that partition the feature space are seeded
// with these bounds.
func (d *Dataset) FeatureBounds() (mins, maxes []float64) {
	dims := d.Dims()
	mins = make([]float64, dims)
	maxes = make([]float64, dims)
	for j := 0; j < dims; j++ {
		mins[j] = math.Inf(1)
		maxes[j] = math.Inf(-1)
	}
	for _, row := range d.X {
		for j, v := range row {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxes[j] {
				maxes[j] = v
			}
		}
	}
	for j := 0; j < dims; j++ {
		if mins[j] > maxes[j] {
			mins[j], maxes[j] = 0, 1
		} else if mins[j] == maxes[j] {
			// Degenerate dimension; widen so partitioning stays valid.
			maxes[j] = mins[j] + 1
		}
	}
	return mins, maxes
}

// Instance is one element of a replayed stream.
type Instance struct {
	Index int
	X     []float64
	Label int
}

// Stream replays the dataset once, in order. It is not safe for concurrent
// use.
type Stream struct {
	d   *Dataset
	pos int
}

// Stream returns a fresh single-pass stream over the dataset.
func (d *Dataset) Stream() *Stream {
	return &Stream{d: d}
}

// Next returns the next instance, or false when the stream is exhausted.
func (s *Stream) Next() (Instance, bool) {
	if s.pos >= s.d.Len() {
		return Instance{}, false
	}
	inst := Instance{
		Index: s.pos,
		X:     s.d.X[s.pos],
		Label: s.d.Y[s.pos],
	}
	s.pos++
	return inst, true
}

// Remaining returns how many instances the stream has yet to yield.
func (s *Stream) Remaining() int { return s.d.Len() - s.pos }

// DataIntegrityError reports a malformed row in a dataset source. The
// stream cannot start when its backing data is inconsistent.
type DataIntegrityError struct {
	Source string
	Index  int
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error in %s at row %d: %s", e.Source, e.Index, e.Reason)
}

// validate checks dimensional consistency, label domain, and feature
// finiteness.
func validate(name string, x [][]float64, y []int) error {
	if len(x) != len(y) {
		return &DataIntegrityError{Source: name, Index: -1,
			Reason: fmt.Sprintf("feature count %d != label count %d", len(x), len(y))}
	}
	if len(x) == 0 {
		return &DataIntegrityError{Source: name, Index: -1, Reason: "dataset is empty"}
	}
	dims := len(x[0])
	if dims == 0 {
		return &DataIntegrityError{Source: name, Index: 0, Reason: "row has no features"}
	}
	for i, row := range x {
		if len(row) != dims {
			return &DataIntegrityError{Source: name, Index: i,
				Reason: fmt.Sprintf("row has %d features, expected %d", len(row), dims)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &DataIntegrityError{Source: name, Index: i,
					Reason: fmt.Sprintf("feature %d is not finite", j)}
			}
		}
		if y[i] != 0 && y[i] != 1 {
			return &DataIntegrityError{Source: name, Index: i,
				Reason: fmt.Sprintf("label %d is not 0 or 1", y[i])}
		}
	}
	return nil
}
