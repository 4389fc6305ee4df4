// Package redis provides a Redis-backed cache over the identity store's key
// resolution path.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
)

const keyPrefix = "recordstore:apikey:"

// KeyCache decorates an IdentityStore with a TTL cache keyed by API key
// digest. Only successful resolutions are cached; failures always retry the
// inner store on the next request. Rotation invalidates the rotated key's
// entry before returning.
type KeyCache struct {
	inner   domain.IdentityStore
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewKeyCache creates a new key resolution cache around inner.
func NewKeyCache(inner domain.IdentityStore, client *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *KeyCache {
	return &KeyCache{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger.With("component", "key_cache"),
		metrics: m,
	}
}

func cacheKey(digest string) string {
	return keyPrefix + digest
}

func (c *KeyCache) ResolveKey(ctx context.Context, key string) (domain.Tenant, error) {
	digest := apikey.Digest(key)

	val, err := c.client.Get(ctx, cacheKey(digest)).Result()
	if err == nil {
		var t domain.Tenant
		if err := json.Unmarshal([]byte(val), &t); err == nil {
			if c.metrics != nil {
				c.metrics.KeyCacheHits.Inc()
			}
			return t, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "error", err)
	} else if !errors.Is(err, redis.Nil) {
		// Cache trouble must not take down authentication.
		c.logger.Warn("key cache read failed", "error", err)
	}

	if c.metrics != nil {
		c.metrics.KeyCacheMisses.Inc()
	}

	tenant, err := c.inner.ResolveKey(ctx, key)
	if err != nil {
		// Don't cache failures, let the next request retry the store.
		return domain.Tenant{}, err
	}

	buf, err := json.Marshal(tenant)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(digest), buf, c.ttl).Err(); err != nil {
		c.logger.Warn("key cache write failed", "error", err)
	}
	return tenant, nil
}

// RotateKey rotates through the inner store, then drops the old key's cache
// entry. An invalidation failure is reported as an error: the rotation has
// happened, but the old key cannot be guaranteed dead until the TTL runs
// out, and callers must not be told otherwise.
func (c *KeyCache) RotateKey(ctx context.Context, tenantID string) (string, error) {
	old, err := c.inner.TenantByID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	key, err := c.inner.RotateKey(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if err := c.client.Del(ctx, cacheKey(apikey.Digest(old.APIKey))).Err(); err != nil {
		return "", fmt.Errorf("invalidate rotated key: %w", err)
	}
	return key, nil
}

func (c *KeyCache) TenantByID(ctx context.Context, tenantID string) (domain.Tenant, error) {
	return c.inner.TenantByID(ctx, tenantID)
}

func (c *KeyCache) CreateTenant(ctx context.Context, email string) (domain.Tenant, error) {
	return c.inner.CreateTenant(ctx, email)
}
