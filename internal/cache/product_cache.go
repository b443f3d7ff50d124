// Package cache keeps a read-through copy of catalog products in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"giftlist/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProductCache caches products by ID. Redis failures are logged and the
// loader is used instead, so the cache never turns a read into an error.
type ProductCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group

	// gens counts invalidations per key. A load only stores its result
	// if no invalidation happened while it ran.
	mu   sync.Mutex
	gens map[string]uint64
}

// New creates a ProductCache on an existing client.
func New(client *redis.Client, prefix string, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		gens:   make(map[string]uint64),
	}
}

// Connect dials Redis at addr and checks the connection.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*ProductCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, "giftlist:product:", ttl), nil
}

func (c *ProductCache) key(id uint) string {
	return c.prefix + strconv.FormatUint(uint64(id), 10)
}

// Get returns the cached product or calls load on a miss. Concurrent
// misses for the same ID share one load.
func (c *ProductCache) Get(ctx context.Context, id uint, load func(context.Context) (*models.Product, error)) (*models.Product, error) {
	key := c.key(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product models.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		log.Printf("Discarding undecodable cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("Cache get error for %s: %v", key, err)
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	val, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		product, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(loadCtx, key, gen, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	product := *val.(*models.Product)
	return &product, nil
}

func (c *ProductCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// store writes product under key unless key was invalidated after gen was
// read.
func (c *ProductCache) store(ctx context.Context, key string, gen uint64, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("Cache set error for %s: %v", key, err)
	}
}

// Invalidate drops the cached copy of a product. A load already in flight
// for it will not be stored, and later callers start a fresh load.
func (c *ProductCache) Invalidate(ctx context.Context, id uint) {
	key := c.key(id)
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("Cache delete error for product %d: %v", id, err)
	}
}

// Ping checks if the Redis connection is healthy.
func (c *ProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *ProductCache) Close() error {
	return c.client.Close()
}
