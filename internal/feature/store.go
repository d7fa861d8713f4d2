// AngelaMos | 2026
// store.go

package feature

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store holds admin overrides of the enabled flag. A feature with no
// override keeps its catalog default.
type Store interface {
	Overrides(ctx context.Context) (map[string]bool, error)
	Set(ctx context.Context, id string, enabled bool) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (m *MemoryStore) Overrides(context.Context) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.flags))
	for id, on := range m.flags {
		out[id] = on
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	m.flags[id] = enabled
	m.mu.Unlock()
	return nil
}

const redisFlagsKey = "features:enabled"

// RedisStore keeps overrides in one hash so they survive restarts and are
// shared between replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Overrides(ctx context.Context) (map[string]bool, error) {
	raw, err := r.client.HGetAll(ctx, redisFlagsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load feature flags: %w", err)
	}

	out := make(map[string]bool, len(raw))
	for id, v := range raw {
		out[id] = v == "1"
	}
	return out, nil
}

func (r *RedisStore) Set(ctx context.Context, id string, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	if err := r.client.HSet(ctx, redisFlagsKey, id, v).Err(); err != nil {
		return fmt.Errorf("set feature flag: %w", err)
	}
	return nil
}
