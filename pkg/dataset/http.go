package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPSource fetches a labeled stream from a REST endpoint and extracts the
// feature matrix and label vector with JSON path expressions. It lets a
// benchmark pull datasets from a catalog service instead of shipping files
// alongside the binary.
//
// Example configuration:
//
//	src := &HTTPSource{
//	    URL:          "https://datasets.example.com/v1/shuttle",
//	    FeaturesPath: "data.#.features",
//	    LabelsPath:   "data.#.label",
//	    Headers:      map[string]string{"Authorization": "Bearer " + token},
//	}
type HTTPSource struct {
	// URL is the endpoint to call (required).
	URL string

	// Headers are custom HTTP headers to include in the request.
	Headers map[string]string

	// FeaturesPath is the gjson path to the per-instance feature arrays,
	// e.g. "data.#.features". Each element must be a numeric array.
	FeaturesPath string

	// LabelsPath is the gjson path to the per-instance labels, e.g.
	// "data.#.label". Must yield the same number of elements as
	// FeaturesPath.
	LabelsPath string

	// Name overrides the dataset name. Defaults to the URL when empty.
	Name string

	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

// Fetch retrieves and parses the dataset.
func (s *HTTPSource) Fetch(ctx context.Context) (*Dataset, error) {
	if s.URL == "" {
		return nil, errors.New("http source: URL is required")
	}
	if s.FeaturesPath == "" || s.LabelsPath == "" {
		return nil, errors.New("http source: FeaturesPath and LabelsPath are required")
	}

	name := s.Name
	if name == "" {
		name = s.URL
	}

	cli := s.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseJSONDataset(name, respBody, s.FeaturesPath, s.LabelsPath)
}

func parseJSONDataset(name string, body []byte, featuresPath, labelsPath string) (*Dataset, error) {
	features := gjson.GetBytes(body, featuresPath)
	labels := gjson.GetBytes(body, labelsPath)

	if !features.Exists() {
		return nil, fmt.Errorf("features path %q not found in response", featuresPath)
	}
	if !labels.Exists() {
		return nil, fmt.Errorf("labels path %q not found in response", labelsPath)
	}

	featArray := features.Array()
	labelArray := labels.Array()
	if len(featArray) != len(labelArray) {
		return nil, fmt.Errorf("feature count (%d) != label count (%d)", len(featArray), len(labelArray))
	}

	x := make([][]float64, 0, len(featArray))
	y := make([]int, 0, len(labelArray))
	for i := range featArray {
		elems := featArray[i].Array()
		row := make([]float64, len(elems))
		for j, e := range elems {
			row[j] = e.Float()
		}
		x = append(x, row)
		y = append(y, int(labelArray[i].Int()))
	}

	if err := validate(name, x, y); err != nil {
		return nil, err
	}
	return &Dataset{Name: name, X: x, Y: y}, nil
}
