// Package storage persists live benchmark run snapshots.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface using Redis as a backend.
// It lets sweep runs on multiple machines publish progress to one place,
// with TTL-based expiration cleaning up after finished runs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
}

// NewRedisStore creates a new Redis-backed store.
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string for no auth)
//   - db: Redis database number (typically 0)
//   - ttl: Snapshot expiration duration (0 uses default of 30 minutes)
//
// Returns an error if the connection to Redis fails or if parameters are invalid.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}

	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Put stores a run snapshot in Redis with TTL-based expiration.
// The key format is "streamsad:run:{dataset}:{model}:{seed}".
func (r *RedisStore) Put(ctx context.Context, s RunSnapshot) error {
	if s.Dataset == "" || s.Model == "" {
		return errors.New("snapshot dataset and model required")
	}

	for _, part := range []string{s.Dataset, s.Model} {
		for _, c := range part {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
				(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
				return fmt.Errorf("invalid name %q: only alphanumeric, hyphens, underscores, and dots allowed", part)
			}
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := "streamsad:run:" + s.Key()

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot in redis: %w", err)
	}

	return nil
}

// GetLatest retrieves the latest snapshot for a run key.
//
// Returns:
//   - snapshot: The run snapshot (zero value if not found)
//   - found: true if snapshot exists, false if not found
//   - error: non-nil if an error occurred (excluding "not found")
func (r *RedisStore) GetLatest(ctx context.Context, key string) (RunSnapshot, bool, error) {
	if key == "" {
		return RunSnapshot{}, false, errors.New("run key required")
	}

	data, err := r.client.Get(ctx, "streamsad:run:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return RunSnapshot{}, false, nil
		}
		return RunSnapshot{}, false, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}

	var snapshot RunSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return RunSnapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snapshot, true, nil
}

// Close closes the Redis client connection.
// It is safe to call multiple times (idempotent).
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	if err != nil && err.Error() == "redis: client is closed" {
		return nil
	}

	return err
}

// Ping checks the Redis connection health.
// Returns an error if the connection is unavailable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
