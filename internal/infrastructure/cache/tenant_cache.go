package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	appTenancy "github.com/nexora/backend/internal/application/tenancy"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/nexora/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const tenantCacheKeyPrefix = "tenant:slug:"

// cachedTenant is the serialized form of a tenant in cache.
type cachedTenant struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Active           bool      `json:"active"`
	StripeCustomerID string    `json:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toCached(t *tenancy.Tenant) *cachedTenant {
	return &cachedTenant{
		ID:               t.ID,
		Name:             t.Name,
		Slug:             t.Slug,
		Active:           t.Active,
		StripeCustomerID: t.StripeCustomerID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (c *cachedTenant) toTenant() *tenancy.Tenant {
	return &tenancy.Tenant{
		BaseEntity: shared.BaseEntity{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		Name:             c.Name,
		Slug:             c.Slug,
		Active:           c.Active,
		StripeCustomerID: c.StripeCustomerID,
	}
}

// InMemoryTenantCache is a TTL cache for resolved tenants, for single
// process deployments and tests.
type InMemoryTenantCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
}

type inMemoryEntry struct {
	tenant    *cachedTenant
	expiresAt time.Time
}

// NewInMemoryTenantCache creates an in-memory tenant cache.
func NewInMemoryTenantCache(ttl time.Duration) *InMemoryTenantCache {
	return &InMemoryTenantCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
	}
}

// Get returns the cached tenant for a slug, or (nil, nil) on a miss.
func (c *InMemoryTenantCache) Get(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	c.mu.RLock()
	entry, ok := c.entries[slug]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, slug)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.tenant.toTenant(), nil
}

// Set caches a tenant keyed by slug.
func (c *InMemoryTenantCache) Set(ctx context.Context, tenant *tenancy.Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenant.Slug] = inMemoryEntry{
		tenant:    toCached(tenant),
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Invalidate drops a slug from the cache.
func (c *InMemoryTenantCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, slug)
	return nil
}

// RedisTenantCache caches resolved tenants in Redis so every instance
// behind the load balancer shares one resolution cache.
type RedisTenantCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTenantCache creates a Redis-backed tenant cache.
func NewRedisTenantCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTenantCache {
	return &RedisTenantCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached tenant for a slug, or (nil, nil) on a miss.
// Redis errors degrade to a miss so resolution falls through to the
// repository.
func (c *RedisTenantCache) Get(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	raw, err := c.client.Get(ctx, tenantCacheKeyPrefix+slug).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Debug("Tenant cache read failed", zap.Error(err))
		return nil, nil
	}

	var cached cachedTenant
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, nil
	}
	return cached.toTenant(), nil
}

// Set caches a tenant keyed by slug.
func (c *RedisTenantCache) Set(ctx context.Context, tenant *tenancy.Tenant) error {
	raw, err := json.Marshal(toCached(tenant))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tenantCacheKeyPrefix+tenant.Slug, raw, c.ttl).Err()
}

// Invalidate drops a slug from the cache.
func (c *RedisTenantCache) Invalidate(ctx context.Context, slug string) error {
	return c.client.Del(ctx, tenantCacheKeyPrefix+slug).Err()
}

// NewTenantCache picks the cache backend from configuration: Redis when
// enabled and reachable, in-memory otherwise.
func NewTenantCache(redisCfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) appTenancy.TenantCache {
	if !redisCfg.Enabled {
		return NewInMemoryTenantCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory tenant cache",
			zap.Error(err))
		return NewInMemoryTenantCache(ttl)
	}

	return NewRedisTenantCache(client, ttl, logger)
}

var (
	_ appTenancy.TenantCache = (*InMemoryTenantCache)(nil)
	_ appTenancy.TenantCache = (*RedisTenantCache)(nil)
)
