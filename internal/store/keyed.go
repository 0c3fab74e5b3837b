package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Keyed is the extension-storage analogue: whole JSON values by key. A
// collection is always written in one Set, so readers never observe a torn
// value.
type Keyed interface {
	// Get decodes the value at key into out. found is false when the key
	// has never been written.
	Get(ctx context.Context, key string, out any) (found bool, err error)
	Set(ctx context.Context, key string, value any) error
}

// RedisKeyed stores each collection as one JSON string per key.
type RedisKeyed struct {
	Client *redis.Client
}

func (s *RedisKeyed) Get(ctx context.Context, key string, out any) (bool, error) {
	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), out)
}

func (s *RedisKeyed) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, b, 0).Err()
}

// MemoryKeyed is the in-process fallback, also used throughout the tests.
type MemoryKeyed struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func NewMemoryKeyed() *MemoryKeyed {
	return &MemoryKeyed{values: make(map[string]json.RawMessage)}
}

func (s *MemoryKeyed) Get(_ context.Context, key string, out any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (s *MemoryKeyed) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = b
	s.mu.Unlock()
	return nil
}
