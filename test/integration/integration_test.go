//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/HatiCode/streamsad/cmd/bench/router"
	"github.com/HatiCode/streamsad/pkg/dataset"
	"github.com/HatiCode/streamsad/pkg/detectors"
	"github.com/HatiCode/streamsad/pkg/evaluate"
	"github.com/HatiCode/streamsad/pkg/memprobe"
	"github.com/HatiCode/streamsad/pkg/pool"
	"github.com/HatiCode/streamsad/pkg/selector"
	"github.com/HatiCode/streamsad/pkg/storage"
)

// TestBenchRedisE2E runs the full pipeline against a real Redis: synthetic
// stream in, adaptive ensemble scoring, snapshots published to Redis, and
// the observation surface served over HTTP.
func TestBenchRedisE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}()

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	store, err := storage.NewRedisStore(endpoint, "", 0, 5*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.DiscardHandler)
	const seed = int64(42)

	ds, err := dataset.Synthetic(dataset.SyntheticConfig{
		Instances:     3000,
		Dims:          5,
		Contamination: 0.05,
		Seed:          seed,
	})
	if err != nil {
		t.Fatalf("Failed to build synthetic dataset: %v", err)
	}
	mins, maxes := ds.FeatureBounds()

	members, err := detectors.RandomPool(5, detectors.Bounds{Mins: mins, Maxes: maxes}, seed)
	if err != nil {
		t.Fatalf("Failed to build detectors: %v", err)
	}
	p, err := pool.New(members, logger)
	if err != nil {
		t.Fatalf("Failed to build detector pool: %v", err)
	}
	p.Reset(seed)

	proxy, err := selector.NewProxy("auto", nil)
	if err != nil {
		t.Fatalf("Failed to build proxy: %v", err)
	}
	sel, err := selector.New(p.Live(), selector.Config{
		Eta:          1.5,
		Proxy:        proxy,
		NormCapacity: 1000,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("Failed to build selector: %v", err)
	}
	labels, err := selector.NewLabelPolicy("immediate", 0, 0, seed)
	if err != nil {
		t.Fatalf("Failed to build label policy: %v", err)
	}
	probe, err := memprobe.New()
	if err != nil {
		t.Fatalf("Failed to create memory probe: %v", err)
	}

	ev, err := evaluate.New(evaluate.Config{
		Dataset:    ds.Name,
		Model:      "adaptive",
		Seed:       seed,
		WindowSize: 1000,
		Pool:       p,
		Selector:   sel,
		Labels:     labels,
		Probe:      probe,
		Store:      store,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("Failed to create evaluator: %v", err)
	}

	// Serve the observation surface over the same router the binary uses.
	key := storage.RunKey(ds.Name, "adaptive", seed)
	srv := httptest.NewServer(router.SetupRoutes(store, key, logger))
	defer srv.Close()

	metrics, err := ev.Process(ctx, ds.Stream())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if metrics.Instances != ds.Len() {
		t.Errorf("Instances = %d, want %d", metrics.Instances, ds.Len())
	}
	if !metrics.AUC.Valid() {
		t.Error("Expected a finite run-level AUC with immediate labels")
	}
	if got := len(metrics.WindowMetric.AUCScores); got != 3 {
		t.Errorf("Expected 3 window entries, got %d", got)
	}

	t.Run("SnapshotInRedis", func(t *testing.T) {
		snap, found, err := store.GetLatest(ctx, key)
		if err != nil {
			t.Fatalf("GetLatest failed: %v", err)
		}
		if !found {
			t.Fatal("Expected a snapshot in Redis after the run")
		}
		if snap.Dataset != ds.Name || snap.Model != "adaptive" {
			t.Errorf("Snapshot identity = %s/%s, want %s/adaptive", snap.Dataset, snap.Model, ds.Name)
		}
		if !snap.Final {
			t.Error("Expected the final snapshot to be marked final")
		}
		if snap.Instances != ds.Len() {
			t.Errorf("Snapshot instances = %d, want %d", snap.Instances, ds.Len())
		}
		var sum float64
		for _, w := range snap.Weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Snapshot weights sum to %v, want 1", sum)
		}
	})

	t.Run("ObservationSurface", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("Health check failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		resp, err = http.Get(srv.URL + "/run/current")
		if err != nil {
			t.Fatalf("Snapshot fetch failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Snapshot status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var snap storage.RunSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("Failed to decode snapshot: %v", err)
		}
		if snap.WindowSize != 1000 {
			t.Errorf("Snapshot window size = %d, want 1000", snap.WindowSize)
		}
		if len(snap.AUCScores) == 0 {
			t.Error("Expected windowed AUC entries in the served snapshot")
		}
	})
}
