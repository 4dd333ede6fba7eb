package seen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/nhle/casewatch/internal/store"
)

// RedisBackend keeps values in Redis so several clients of the same user
// share one seen set.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps client. Keys are stored as prefix + key.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// GetValue implements Backend.
func (b *RedisBackend) GetValue(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis key %q: %w", b.prefix+key, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", b.prefix+key, err)
	}
	return data, nil
}

// PutValue implements Backend. Values do not expire.
func (b *RedisBackend) PutValue(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", b.prefix+key, err)
	}
	return nil
}

// MemoryBackend keeps values in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// GetValue implements Backend.
func (b *MemoryBackend) GetValue(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	if !ok {
		return nil, fmt.Errorf("memory key %q: %w", key, store.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// PutValue implements Backend.
func (b *MemoryBackend) PutValue(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = append([]byte(nil), value...)
	return nil
}
