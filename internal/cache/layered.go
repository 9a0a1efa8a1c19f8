// Package cache implements the layered, tenant-scoped cache described in
// §4.12: per-layer TTLs with jitter on volatile layers, tenant-prefixed
// keys, graceful degradation to a pass-through no-op on backend errors, and
// hit/miss/set/delete metrics.
package cache

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	localcache "github.com/delimatsuo/talentsearch/pkg/cache"
)

// Layer names a cache layer with its own TTL policy.
type Layer string

const (
	LayerSearch    Layer = "search"
	LayerRerank    Layer = "rerank"
	LayerEmbedding Layer = "embedding"
	LayerSpecialty Layer = "specialty"
)

// layerTTL is the base TTL per layer before jitter.
var layerTTL = map[Layer]time.Duration{
	LayerSearch:    600 * time.Second,
	LayerRerank:    6 * time.Hour,
	LayerEmbedding: time.Hour,
	LayerSpecialty: 24 * time.Hour,
}

// jitteredLayers get ±20% TTL jitter to avoid synchronized mass-expiry.
var jitteredLayers = map[Layer]bool{
	LayerSearch:    true,
	LayerEmbedding: true,
}

const jitterFraction = 0.2

// Backend is satisfied by a distributed cache client; Cache degrades to
// local-only, no-op-on-error behavior when Backend is nil or erroring.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// redisBackend adapts a goredis.UniversalClient to Backend.
type redisBackend struct {
	client goredis.UniversalClient
}

// NewRedisBackend wraps a go-redis universal client as a Backend.
func NewRedisBackend(client goredis.UniversalClient) Backend {
	return &redisBackend{client: client}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	return b.client.Get(ctx, key).Result()
}

func (b *redisBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *redisBackend) Del(ctx context.Context, keys ...string) error {
	return b.client.Del(ctx, keys...).Err()
}

func (b *redisBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	return b.client.Keys(ctx, pattern).Result()
}

// Metrics counts cache operations; a nil field is skipped.
type Metrics struct {
	OnHit    func(layer Layer)
	OnMiss   func(layer Layer)
	OnSet    func(layer Layer)
	OnDelete func(layer Layer)
}

// Cache is the layered, tenant-scoped cache. It always keeps a local SWR
// cache (pkg/cache) warm and, when backend is non-nil, additionally
// persists to a distributed backend — backend errors degrade to local-only
// operation rather than failing the caller.
type Cache struct {
	local   *localcache.Cache
	backend Backend
	logger  *logrus.Logger
	metrics Metrics
}

// New builds a layered cache. backend may be nil to run local-only.
func New(backend Backend, logger *logrus.Logger, metrics Metrics) *Cache {
	local := localcache.New(localcache.Options{MaxEntries: 10000}, localcache.MetricsHooks{})
	return &Cache{local: local, backend: backend, logger: logger, metrics: metrics}
}

// Key renders the tenant-prefixed cache key hh:{layer}:{tenantId}:{identifier}.
func Key(layer Layer, tenantID, identifier string) string {
	return fmt.Sprintf("hh:%s:%s:%s", layer, tenantID, identifier)
}

// Get looks up key, trying the local cache first and falling back to the
// distributed backend (populating local on a backend hit). A miss or
// backend error both report a miss rather than propagating the error.
func (c *Cache) Get(ctx context.Context, layer Layer, key string, out any) (bool, error) {
	if v, ok := c.local.Peek(key); ok {
		if err := assign(v, out); err == nil {
			c.hit(layer)
			return true, nil
		}
	}

	if c.backend == nil {
		c.miss(layer)
		return false, nil
	}

	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if err != goredis.Nil && c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("cache backend get failed, degrading to miss")
		}
		c.miss(layer)
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.miss(layer)
		return false, nil
	}
	c.local.Set(key, out, layerTTL[layer])
	c.hit(layer)
	return true, nil
}

// Set stores value under key in both the local cache and, when present, the
// distributed backend, applying jitter for volatile layers.
func (c *Cache) Set(ctx context.Context, layer Layer, key string, value any) {
	ttl := ttlWithJitter(layer)
	c.local.Set(key, value, ttl)

	if c.backend != nil {
		raw, err := json.Marshal(value)
		if err == nil {
			if err := c.backend.Set(ctx, key, string(raw), ttl); err != nil && c.logger != nil {
				c.logger.WithError(err).WithField("key", key).Warn("cache backend set failed, local-only")
			}
		}
	}
	c.set(layer)
}

// Delete removes key from both layers.
func (c *Cache) Delete(ctx context.Context, layer Layer, key string) {
	c.local.Delete(key)
	if c.backend != nil {
		if err := c.backend.Del(ctx, key); err != nil && c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("cache backend delete failed")
		}
	}
	c.delete(layer)
}

// InvalidateTenantLayer deletes every key for tenantID within layer from the
// distributed backend by pattern scan; the local cache is unaffected since
// it has no pattern-scan primitive and entries there expire naturally.
func (c *Cache) InvalidateTenantLayer(ctx context.Context, layer Layer, tenantID string) error {
	if c.backend == nil {
		return nil
	}
	pattern := fmt.Sprintf("hh:%s:%s:*", layer, tenantID)
	keys, err := c.backend.Keys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan tenant layer keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.backend.Del(ctx, keys...)
}

func ttlWithJitter(layer Layer) time.Duration {
	base := layerTTL[layer]
	if !jitteredLayers[layer] || base == 0 {
		return base
	}
	spread := float64(base) * jitterFraction
	offset, err := rand.Int(rand.Reader, big.NewInt(int64(spread*2)))
	if err != nil {
		return base
	}
	delta := time.Duration(offset.Int64()) - time.Duration(spread)
	return base + delta
}

func assign(src any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (c *Cache) hit(layer Layer) {
	if c.metrics.OnHit != nil {
		c.metrics.OnHit(layer)
	}
}

func (c *Cache) miss(layer Layer) {
	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss(layer)
	}
}

func (c *Cache) set(layer Layer) {
	if c.metrics.OnSet != nil {
		c.metrics.OnSet(layer)
	}
}

func (c *Cache) delete(layer Layer) {
	if c.metrics.OnDelete != nil {
		c.metrics.OnDelete(layer)
	}
}
