// Package cache holds the read-through cache behind tenant resolution.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
)

// StoreCache maps tenant keys to stores. A miss returns (nil, nil).
type StoreCache interface {
	Get(ctx context.Context, key string) (*model.Store, error)
	Set(ctx context.Context, key string, store *model.Store) error
	Delete(ctx context.Context, keys ...string) error
}

type memoryEntry struct {
	store     model.Store
	expiresAt time.Time
}

// MemoryStoreCache is a process-local TTL map.
type MemoryStoreCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStoreCache(ttl time.Duration) *MemoryStoreCache {
	return &MemoryStoreCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryStoreCache) Get(_ context.Context, key string) (*model.Store, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	store := entry.store
	return &store, nil
}

func (c *MemoryStoreCache) Set(_ context.Context, key string, store *model.Store) error {
	if store == nil {
		return nil
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{store: *store, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryStoreCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

// PurgeExpired drops every expired entry and reports how many it removed.
func (c *MemoryStoreCache) PurgeExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *MemoryStoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisStoreCache stores JSON-encoded stores under storeup:tenant:<key>.
type RedisStoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStoreCache(client *redis.Client, ttl time.Duration) *RedisStoreCache {
	return &RedisStoreCache{client: client, ttl: ttl}
}

func tenantKey(key string) string {
	return "storeup:tenant:" + key
}

func (c *RedisStoreCache) Get(ctx context.Context, key string) (*model.Store, error) {
	raw, err := c.client.Get(ctx, tenantKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var store model.Store
	if err := json.Unmarshal(raw, &store); err != nil {
		logger.Warn("Dropping undecodable tenant cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		if delErr := c.client.Del(ctx, tenantKey(key)).Err(); delErr != nil {
			logger.Debug("Failed to drop undecodable tenant cache entry", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		return nil, nil
	}
	return &store, nil
}

func (c *RedisStoreCache) Set(ctx context.Context, key string, store *model.Store) error {
	if store == nil {
		return nil
	}
	raw, err := json.Marshal(store)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tenantKey(key), raw, c.ttl).Err()
}

func (c *RedisStoreCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = tenantKey(k)
	}
	return c.client.Del(ctx, redisKeys...).Err()
}
