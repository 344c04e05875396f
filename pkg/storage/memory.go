package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore implements an in-memory run snapshot store.
// It is safe for concurrent use by multiple goroutines.
//
// MemoryStore keeps the latest snapshot per run key in a map. If TTL is
// configured, a background goroutine removes snapshots of runs that stopped
// publishing. For sweeps whose runs should be observable from other
// processes, use RedisStore instead.
type MemoryStore struct {
	mu            sync.RWMutex
	snapshots     map[string]RunSnapshot
	ttl           time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupDone   chan struct{}
	stopped       bool
	stopMu        sync.Mutex
}

// NewMemoryStore creates an in-memory snapshot store with no TTL.
// Snapshots are kept until overwritten or deleted.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]RunSnapshot),
	}
}

// NewMemoryStoreWithTTL creates an in-memory snapshot store with automatic
// TTL-based cleanup. A background goroutine periodically removes snapshots
// whose run has not published within the TTL.
//
// The cleanup goroutine must be stopped by calling Stop() when the store is
// no longer needed.
func NewMemoryStoreWithTTL(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("TTL must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	store := &MemoryStore{
		snapshots:     make(map[string]RunSnapshot),
		ttl:           ttl,
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
		cleanupDone:   make(chan struct{}),
	}

	go store.runCleanup()

	return store
}

// Stop shuts down the background cleanup goroutine. It blocks until cleanup
// is complete. Calling Stop multiple times or on a store without TTL is safe
// and does nothing.
func (s *MemoryStore) Stop() {
	if s.cleanupTicker == nil {
		return
	}

	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	if s.stopped {
		return
	}

	close(s.stopCleanup)
	<-s.cleanupDone
	s.cleanupTicker.Stop()
	s.stopped = true
}

func (s *MemoryStore) runCleanup() {
	defer close(s.cleanupDone)

	for {
		select {
		case <-s.cleanupTicker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes snapshots whose last publish is older than the TTL.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl == 0 {
		return
	}

	now := time.Now()
	for key, snapshot := range s.snapshots {
		if now.Sub(snapshot.UpdatedAt) > s.ttl {
			delete(s.snapshots, key)
		}
	}
}

// Put stores a snapshot under its run key, replacing any existing snapshot.
//
// Returns an error if the snapshot's identity fields are empty or if the
// context is canceled. Safe for concurrent use.
func (s *MemoryStore) Put(ctx context.Context, snapshot RunSnapshot) error {
	if snapshot.Dataset == "" || snapshot.Model == "" {
		return fmt.Errorf("snapshot dataset and model cannot be empty")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.Key()] = snapshot
	return nil
}

// GetLatest retrieves the most recent snapshot for a run key.
//
// Returns:
//   - snapshot: The stored snapshot (zero value if not found)
//   - found: true if a snapshot exists for this key, false otherwise
//   - error: Context error if context is canceled, nil otherwise
//
// Safe for concurrent use.
func (s *MemoryStore) GetLatest(ctx context.Context, key string) (RunSnapshot, bool, error) {
	select {
	case <-ctx.Done():
		return RunSnapshot{}, false, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, found := s.snapshots[key]
	return snapshot, found, nil
}

// Len returns the number of snapshots currently stored.
// Primarily useful for testing and metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Delete removes a snapshot for a run key. Returns true if a snapshot was
// deleted, false if none existed.
func (s *MemoryStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.snapshots[key]
	delete(s.snapshots, key)
	return existed
}
