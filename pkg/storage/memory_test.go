package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func sampleSnapshot(dataset, model string, seed int64) RunSnapshot {
	return RunSnapshot{
		Dataset:      dataset,
		Model:        model,
		Seed:         seed,
		UpdatedAt:    time.Now(),
		Instances:    2000,
		WindowSize:   1000,
		AUCScores:    []*float64{f64(0.81), nil},
		Runtimes:     []float64{0.4, 0.9},
		MemoryUsages: []*float64{f64(1.2e7), f64(1.3e7)},
		Weights:      map[string]float64{"hst-0": 0.6, "loda-1": 0.4},
	}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore returned nil")
	}
	if store.Len() != 0 {
		t.Errorf("new store has %d snapshots, want 0", store.Len())
	}
}

func TestMemoryStore_Put_Get(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot("shuttle", "adaptive", 42)
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.GetLatest(ctx, RunKey("shuttle", "adaptive", 42))
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if !found {
		t.Fatal("snapshot not found after Put")
	}
	if got.Dataset != "shuttle" || got.Model != "adaptive" || got.Seed != 42 {
		t.Errorf("identity mismatch: %s/%s/%d", got.Dataset, got.Model, got.Seed)
	}
	if len(got.AUCScores) != 2 || got.AUCScores[1] != nil || *got.AUCScores[0] != 0.81 {
		t.Errorf("auc scores not preserved: %v", got.AUCScores)
	}
	if got.Weights["hst-0"] != 0.6 {
		t.Errorf("weights not preserved: %v", got.Weights)
	}
}

func TestMemoryStore_Put_RejectsEmptyIdentity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, RunSnapshot{Model: "adaptive"}); err == nil {
		t.Error("expected error for empty dataset")
	}
	if err := store.Put(ctx, RunSnapshot{Dataset: "shuttle"}); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestMemoryStore_Put_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, sampleSnapshot("a", "b", 1)); err == nil {
		t.Error("expected context error")
	}
}

func TestMemoryStore_GetLatest_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, found, err := store.GetLatest(context.Background(), RunKey("missing", "adaptive", 1))
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if found {
		t.Error("found a snapshot that was never stored")
	}
}

func TestMemoryStore_Put_Update(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot("shuttle", "adaptive", 42)
	snap.Instances = 1000
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	snap.Instances = 2000
	snap.Final = true
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, _, _ := store.GetLatest(ctx, snap.Key())
	if got.Instances != 2000 || !got.Final {
		t.Errorf("update not applied: instances=%d final=%v", got.Instances, got.Final)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d after update, want 1", store.Len())
	}
}

func TestMemoryStore_MultipleRuns(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	runs := []RunSnapshot{
		sampleSnapshot("shuttle", "adaptive", 1),
		sampleSnapshot("shuttle", "adaptive", 2),
		sampleSnapshot("shuttle", "hst", 1),
		sampleSnapshot("http", "adaptive", 1),
	}
	for _, r := range runs {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put %s: %v", r.Key(), err)
		}
	}

	if store.Len() != len(runs) {
		t.Fatalf("Len() = %d, want %d", store.Len(), len(runs))
	}
	for _, r := range runs {
		got, found, err := store.GetLatest(ctx, r.Key())
		if err != nil || !found {
			t.Fatalf("GetLatest(%s): found=%v err=%v", r.Key(), found, err)
		}
		if got.Dataset != r.Dataset || got.Model != r.Model || got.Seed != r.Seed {
			t.Errorf("key %s returned snapshot for %s", r.Key(), got.Key())
		}
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := sampleSnapshot(fmt.Sprintf("ds-%d", i), "adaptive", int64(j))
				if err := store.Put(ctx, snap); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, _, err := store.GetLatest(ctx, RunKey(fmt.Sprintf("ds-%d", i), "adaptive", int64(j))); err != nil {
					t.Errorf("GetLatest: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot("shuttle", "adaptive", 42)
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if !store.Delete(snap.Key()) {
		t.Error("Delete returned false for existing snapshot")
	}
	if store.Delete(snap.Key()) {
		t.Error("Delete returned true for already-deleted snapshot")
	}
	if _, found, _ := store.GetLatest(ctx, snap.Key()); found {
		t.Error("snapshot still retrievable after Delete")
	}
}

func TestMemoryStoreWithTTL_Expiration(t *testing.T) {
	store := NewMemoryStoreWithTTL(50*time.Millisecond, 20*time.Millisecond)
	defer store.Stop()
	ctx := context.Background()

	snap := sampleSnapshot("shuttle", "adaptive", 42)
	snap.UpdatedAt = time.Now()
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	if _, found, _ := store.GetLatest(ctx, snap.Key()); found {
		t.Error("stale snapshot survived TTL cleanup")
	}
}

func TestMemoryStoreWithTTL_FreshSnapshotSurvives(t *testing.T) {
	store := NewMemoryStoreWithTTL(time.Hour, 20*time.Millisecond)
	defer store.Stop()
	ctx := context.Background()

	snap := sampleSnapshot("shuttle", "adaptive", 42)
	snap.UpdatedAt = time.Now()
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, found, _ := store.GetLatest(ctx, snap.Key()); !found {
		t.Error("fresh snapshot removed by cleanup")
	}
}

func TestMemoryStoreWithTTL_Stop(t *testing.T) {
	store := NewMemoryStoreWithTTL(time.Minute, 10*time.Millisecond)
	store.Stop()
	store.Stop() // idempotent
}

func TestMemoryStore_StopWithoutTTL(t *testing.T) {
	store := NewMemoryStore()
	store.Stop() // no cleanup goroutine, must not block or panic
}

func TestMemoryStoreWithTTL_PanicOnInvalidTTL(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-positive TTL")
		}
	}()
	NewMemoryStoreWithTTL(0, time.Minute)
}

func BenchmarkMemoryStore_ConcurrentAccess(b *testing.B) {
	store := NewMemoryStore()
	ctx := context.Background()
	snap := sampleSnapshot("bench", "adaptive", 1)
	_ = store.Put(ctx, snap)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = store.GetLatest(ctx, snap.Key())
		}
	})
}
