package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HatiCode/streamsad/cmd/bench/config"
)

func TestDatasetNameFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://localhost:8090/dataset", "localhost-8090-dataset"},
		{"http://127.0.0.1:37827/dataset", "127.0.0.1-37827-dataset"},
		{"https://data.example.com/streams/shuttle.json", "data.example.com-streams-shuttle.json"},
		{"http://host/", "host"},
		{"http://host", "host"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := datasetNameFromURL(tt.raw)
			if got != tt.want {
				t.Errorf("datasetNameFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if err := config.ValidateDatasetName(got); err != nil {
				t.Errorf("derived name %q fails validation: %v", got, err)
			}
		})
	}
}

func TestLoadDataset_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"features":[1.0,2.0],"label":0},
			{"features":[3.0,4.0],"label":1}
		]}`))
	}))
	defer srv.Close()

	cfg := &config.Config{Dataset: srv.URL}
	ds, err := loadDataset(context.Background(), cfg)
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}

	// The derived name must survive the same validation main applies.
	if err := config.ValidateDatasetName(ds.Name); err != nil {
		t.Errorf("HTTP dataset name %q rejected: %v", ds.Name, err)
	}
	if ds.Len() != 2 || ds.Dims() != 2 {
		t.Errorf("got %d instances with %d dims, want 2x2", ds.Len(), ds.Dims())
	}
	if ds.Anomalies() != 1 {
		t.Errorf("got %d anomalies, want 1", ds.Anomalies())
	}
}

func TestLoadDataset_Synthetic(t *testing.T) {
	cfg := &config.Config{Dataset: "synthetic", Seed: 42}
	ds, err := loadDataset(context.Background(), cfg)
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	if err := config.ValidateDatasetName(ds.Name); err != nil {
		t.Errorf("synthetic dataset name %q rejected: %v", ds.Name, err)
	}
	if ds.Len() == 0 {
		t.Error("synthetic dataset is empty")
	}
}
