package storage

import (
	"context"
	"fmt"
	"time"
)

// RunSnapshot is the live state of a benchmark run: identity, progress, and
// the windowed metrics sealed so far. The evaluator publishes a fresh
// snapshot after every sealed window, so observers can watch a run converge
// without touching the output artifact.
type RunSnapshot struct {
	Dataset   string    `json:"dataset"`
	Model     string    `json:"model"`
	Seed      int64     `json:"seed"`
	RunCount  int       `json:"run_count,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	// Instances is the number of stream instances processed so far.
	Instances int `json:"instances"`

	WindowSize int `json:"window_size"`

	// AUCScores holds one windowed ROC AUC per sealed window; nil marks a
	// window whose labels were single-class.
	AUCScores []*float64 `json:"auc_scores"`

	// Runtimes holds cumulative processing seconds at each window seal.
	Runtimes []float64 `json:"runtimes"`

	// MemoryUsages holds process RSS in bytes at each window seal; nil
	// marks a failed measurement.
	MemoryUsages []*float64 `json:"memory_usages"`

	// Weights is the ensemble's current weight per detector. Empty for
	// single-detector runs.
	Weights map[string]float64 `json:"weights,omitempty"`

	// Final is true once the stream is exhausted.
	Final bool `json:"final"`
}

// Key identifies a run in the store.
func (s *RunSnapshot) Key() string {
	return RunKey(s.Dataset, s.Model, s.Seed)
}

// RunKey builds the store key for a dataset, model, and seed combination.
func RunKey(dataset, model string, seed int64) string {
	return fmt.Sprintf("%s:%s:%d", dataset, model, seed)
}

// Store persists run snapshots keyed by RunKey.
type Store interface {
	Put(ctx context.Context, snapshot RunSnapshot) error
	GetLatest(ctx context.Context, key string) (RunSnapshot, bool, error)
}
