package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/hours"
	"storefront/internal/seasonal"
)

// ErrMiss is returned when a key is absent or the cache is disabled.
var ErrMiss = errors.New("cache miss")

// SnapshotCache stores computed status snapshots in Redis as JSON.
// A nil *SnapshotCache, or one without a client, behaves as an always-empty cache.
type SnapshotCache struct {
	redis  *redis.Client
	prefix string
}

// New wraps a Redis client. Keys are namespaced with prefix.
func New(client *redis.Client, prefix string) *SnapshotCache {
	return &SnapshotCache{redis: client, prefix: prefix}
}

// Enabled reports whether a Redis client is configured.
func (c *SnapshotCache) Enabled() bool {
	return c != nil && c.redis != nil
}

// Key joins parts under the cache prefix.
func (c *SnapshotCache) Key(parts ...string) string {
	if c == nil || c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Ping checks the Redis connection.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// SetHours stores the latest business-hours status.
func (c *SnapshotCache) SetHours(ctx context.Context, st hours.Status, ttl time.Duration) error {
	return c.write(ctx, c.Key("hours"), st, ttl)
}

// GetHours returns the cached business-hours status.
func (c *SnapshotCache) GetHours(ctx context.Context) (*hours.Status, error) {
	var st hours.Status
	if err := c.read(ctx, c.Key("hours"), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SetSeason stores the latest seasonal state.
func (c *SnapshotCache) SetSeason(ctx context.Context, st seasonal.State, ttl time.Duration) error {
	return c.write(ctx, c.Key("season"), st, ttl)
}

// GetSeason returns the cached seasonal state.
func (c *SnapshotCache) GetSeason(ctx context.Context) (*seasonal.State, error) {
	var st seasonal.State
	if err := c.read(ctx, c.Key("season"), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Remember returns the cached value under key, computing and storing it on a miss.
// Cache failures fall through to compute.
func Remember[T any](ctx context.Context, c *SnapshotCache, key string, ttl time.Duration, compute func() T) T {
	var out T
	if err := c.read(ctx, key, &out); err == nil {
		return out
	}
	out = compute()
	_ = c.write(ctx, key, out, ttl)
	return out
}

func (c *SnapshotCache) read(ctx context.Context, key string, out any) error {
	if !c.Enabled() {
		return ErrMiss
	}
	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *SnapshotCache) write(ctx context.Context, key string, val any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
