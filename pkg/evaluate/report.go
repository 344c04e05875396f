package evaluate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WindowMetric holds the per-window series of a run. Runtimes are
// cumulative seconds since the run started, sampled at each seal.
type WindowMetric struct {
	WindowSize   int         `json:"window_size"`
	AUCScores    []NullFloat `json:"auc_scores"`
	Runtimes     []float64   `json:"runtimes"`
	MemoryUsages []NullFloat `json:"memory_usages"`
}

// RunMetrics is the output artifact of one benchmark run. The field names
// and casing are the interchange format consumed by the result aggregation
// scripts; Instances is capitalized there.
type RunMetrics struct {
	Dataset          string       `json:"dataset"`
	Model            string       `json:"model"`
	AUC              NullFloat    `json:"auc"`
	TotalRuntime     float64      `json:"total_runtime"`
	TotalMemoryUsage NullFloat    `json:"total_memory_usage"`
	Instances        int          `json:"Instances"`
	RunCount         int          `json:"run_count,omitempty"`
	Seed             int64        `json:"seed"`
	WindowMetric     WindowMetric `json:"window_metric"`
}

// Filename returns the artifact's file name: "<model>_<dataset>.json", with
// the run count appended when set.
func (m *RunMetrics) Filename() string {
	if m.RunCount > 0 {
		return fmt.Sprintf("%s_%s_%d.json", m.Model, m.Dataset, m.RunCount)
	}
	return fmt.Sprintf("%s_%s.json", m.Model, m.Dataset)
}

// WriteFile writes the artifact into dir, creating it if needed, and
// returns the full path written.
func (m *RunMetrics) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run metrics: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, m.Filename())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write run metrics: %w", err)
	}
	return path, nil
}
