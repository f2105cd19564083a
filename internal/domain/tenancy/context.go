package tenancy

import (
	"context"
	"sync"

	"github.com/nexora/backend/internal/domain/shared"
)

// Context holds the zero-or-one resolved tenant for the current unit of work
// (an HTTP request or a background job). It is request-scoped state: every
// unit of work gets its own Context, and workers that process multiple jobs
// in one process must Clear between jobs. A stale tenant leaking into the
// next unit of work is a cross-tenant data exposure, not a cosmetic bug.
type Context struct {
	mu     sync.RWMutex
	tenant *Tenant
}

// NewContext creates an empty tenancy context.
func NewContext() *Context {
	return &Context{}
}

// Set stores the resolved tenant for the current unit of work.
func (c *Context) Set(tenant *Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenant = tenant
}

// Get returns the resolved tenant, or nil if none is set.
func (c *Context) Get() *Tenant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenant
}

// Current returns the resolved tenant, or ErrNoTenantResolved if none is set.
func (c *Context) Current() (*Tenant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tenant == nil {
		return nil, shared.ErrNoTenantResolved
	}
	return c.tenant, nil
}

// HasTenant reports whether a tenant has been resolved.
func (c *Context) HasTenant() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenant != nil
}

// Clear resets the resolved tenant. Called at the end of every unit of work.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenant = nil
}

type contextKey string

const tenancyContextKey contextKey = "tenancy_context"

// WithContext attaches a tenancy Context to a context.Context so the
// persistence layer can recover it without threading it through every call.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, tenancyContextKey, tc)
}

// FromContext retrieves the tenancy Context, or nil if none is attached.
func FromContext(ctx context.Context) *Context {
	if tc, ok := ctx.Value(tenancyContextKey).(*Context); ok {
		return tc
	}
	return nil
}

// CurrentTenant is a convenience that returns the resolved tenant from a
// context.Context, or nil when no tenancy Context is attached or no tenant
// has been resolved.
func CurrentTenant(ctx context.Context) *Tenant {
	tc := FromContext(ctx)
	if tc == nil {
		return nil
	}
	return tc.Get()
}
