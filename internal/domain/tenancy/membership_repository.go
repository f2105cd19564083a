package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// MembershipRepository defines persistence operations for tenant memberships
type MembershipRepository interface {
	// FindByID finds a membership by ID
	FindByID(ctx context.Context, id uuid.UUID) (*TenantMembership, error)

	// FindByTenantAndUser finds the membership linking a user to a tenant
	FindByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*TenantMembership, error)

	// CountByTenant returns the live seat count for a tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountByTenantAndRole counts memberships with a given role on a tenant
	CountByTenantAndRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error)

	// Save persists a membership
	Save(ctx context.Context, membership *TenantMembership) error

	// Delete removes a membership
	Delete(ctx context.Context, id uuid.UUID) error
}
