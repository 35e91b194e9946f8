package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// Cache is a JSON cache over Redis. A Cache with a nil client is valid and
// always misses, so callers need no special casing when Redis is down.
type Cache struct {
	client *redis.Client
}

// New wraps client, which may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// and stores the result with ttl. Redis failures degrade to calling fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if c.Enabled() {
		var span trace.Span
		ctx, span = observability.TraceRedisOperation(ctx, "aside")
		defer span.End()
	}
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		observability.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		observability.RecordErrorInContext(ctx, err)
		return err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		observability.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return nil
}

// Invalidate deletes key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		observability.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

// InvalidateProfile drops the cached profile row.
func (c *Cache) InvalidateProfile(ctx context.Context, userID string) {
	c.Invalidate(ctx, ProfileKey(userID))
}

// Mark sets key with ttl, used for flags such as revoked tokens.
func (c *Cache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, key, "1", ttl).Err()
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the Redis connection. A disabled cache reports an error.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}
