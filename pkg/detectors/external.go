package detectors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// External implements a detector that delegates scoring to an out-of-process
// HTTP service. This allows any anomaly detection algorithm to join a run as
// long as the service accepts a feature vector and returns a score.
//
// Contract: POST {"index": n, "features": [..]} to the endpoint; the service
// responds 200 with {"score": s}. Higher scores mean more anomalous.
type External struct {
	name     string
	endpoint string
	client   *http.Client
	index    int
}

type externalRequest struct {
	Index    int       `json:"index"`
	Features []float64 `json:"features"`
}

type externalResponse struct {
	Score float64 `json:"score"`
}

// NewExternal creates a detector backed by an external HTTP scoring service.
func NewExternal(name, endpoint string) *External {
	return &External{
		name:     name,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
	}
}

// Name returns the detector identifier.
func (e *External) Name() string { return e.name }

// Reset restarts the instance counter. The external service owns its own
// model state; a seed cannot be pushed across the wire, so reseeding is the
// service operator's responsibility.
func (e *External) Reset(seed int64) {
	e.index = 0
}

// ObserveScore posts the instance to the external service and returns its
// score. Any transport or contract failure is returned to the pool, which
// degrades this detector rather than aborting the run.
func (e *External) ObserveScore(x []float64) (float64, error) {
	body, err := json.Marshal(externalRequest{Index: e.index, Features: x})
	if err != nil {
		return 0, fmt.Errorf("external: marshal request: %w", err)
	}

	resp, err := e.client.Post(e.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("external: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("external: unexpected status %d", resp.StatusCode)
	}

	var out externalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("external: decode response: %w", err)
	}

	e.index++
	return out.Score, nil
}

// MemoryBytes reports zero: the model lives out of process.
func (e *External) MemoryBytes() uint64 { return 0 }
