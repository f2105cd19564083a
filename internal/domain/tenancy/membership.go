package tenancy

import (
	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
)

// TenantMembership links a user to a tenant with a role. One membership is
// one billable seat.
type TenantMembership struct {
	shared.BaseEntity
	TenantID uuid.UUID
	UserID   uuid.UUID
	RoleID   uuid.UUID
}

// NewTenantMembership creates a membership.
func NewTenantMembership(tenantID, userID, roleID uuid.UUID) (*TenantMembership, error) {
	if tenantID == uuid.Nil || userID == uuid.Nil || roleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBERSHIP", "Tenant, user, and role are required")
	}
	return &TenantMembership{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		UserID:     userID,
		RoleID:     roleID,
	}, nil
}
