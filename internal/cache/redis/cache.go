// Package redis implements the response cache on Redis: exact-key
// lookups with JSON values and a TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

// Config contains Redis cache settings.
type Config struct {
	Enabled  bool   `env:"CACHE_ENABLED"  envDefault:"false"`
	Host     string `env:"REDIS_HOST"     envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT"     envDefault:"6379"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
	Password string `env:"REDIS_PASSWORD"`
	TTL      int    `env:"CACHE_TTL"      envDefault:"3600"` // seconds
}

// Cache implements domain.ResponseCache on Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed response cache. The connection is lazy; a
// dead Redis degrades every lookup to a miss rather than failing requests.
func New(cfg Config) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTL) * time.Second,
	}
}

// Get retrieves a cached dispatch result. Returns domain.ErrCacheMiss
// when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) (*domain.DispatchResult, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var result domain.DispatchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		// A corrupt entry is as good as a miss; drop it.
		observability.FromContext(ctx).Warn("dropping corrupt cache entry",
			observability.String("key", key),
			observability.Error(err))
		c.client.Del(ctx, key)
		return nil, domain.ErrCacheMiss
	}

	return &result, nil
}

// Set stores a dispatch result under the given key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, result *domain.DispatchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// Ping verifies connectivity, for startup logging only.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
