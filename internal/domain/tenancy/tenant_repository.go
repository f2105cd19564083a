package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines persistence operations for tenants
type TenantRepository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindBySlug finds a tenant by its unique slug
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)

	// FindByStripeCustomerID finds a tenant by its external billing customer reference
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Tenant, error)

	// SlugExists reports whether a tenant with the given slug exists
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Save persists a tenant (create or update)
	Save(ctx context.Context, tenant *Tenant) error

	// Delete removes a tenant and, as the owning aggregate, its memberships,
	// subscription, and usage records
	Delete(ctx context.Context, id uuid.UUID) error
}
