package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/careerlens/assessment-server/pkg/cache"
)

// InMemoryKV stands in for the Redis client in end-to-end tests. Values
// are JSON-encoded like the real client encodes them; TTLs are recorded
// but never enforced.
type InMemoryKV struct {
	mu     sync.Mutex
	values map[string]string
	hashes map[string]map[string]string
	TTLs   map[string]time.Duration
}

func NewInMemoryKV() *InMemoryKV {
	return &InMemoryKV{
		values: make(map[string]string),
		hashes: make(map[string]map[string]string),
		TTLs:   make(map[string]time.Duration),
	}
}

func (c *InMemoryKV) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (c *InMemoryKV) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = string(raw)
	c.TTLs[key] = expiration
	return nil
}

func (c *InMemoryKV) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		delete(c.hashes, k)
	}
	return nil
}

func (c *InMemoryKV) HSet(ctx context.Context, key, field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hashes[key] == nil {
		c.hashes[key] = make(map[string]string)
	}
	c.hashes[key][field] = string(raw)
	return nil
}

func (c *InMemoryKV) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.hashes[key]))
	for k, v := range c.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (c *InMemoryKV) HExists(ctx context.Context, key, field string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.hashes[key][field]
	return ok, nil
}

func (c *InMemoryKV) HDel(ctx context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, field := range fields {
		delete(c.hashes[key], field)
	}
	return nil
}

// HasKey reports whether a plain key is currently set.
func (c *InMemoryKV) HasKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}
