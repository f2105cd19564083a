package tenancy

import (
	"github.com/nexora/backend/internal/domain/shared"
)

// Event types emitted by the tenancy domain
const (
	EventTypeTenantProvisioned = "tenancy.tenant_provisioned"
)

// TenantProvisionedEvent is emitted once a tenant, its owner user, and its
// subscription have been committed from a completed purchase. The
// notification collaborator consumes it to send the setup link.
type TenantProvisionedEvent struct {
	shared.BaseDomainEvent
	TenantName  string `json:"tenant_name"`
	TenantSlug  string `json:"tenant_slug"`
	OwnerUserID string `json:"owner_user_id"`
	OwnerEmail  string `json:"owner_email"`
}

// NewTenantProvisionedEvent creates a tenant provisioned event.
func NewTenantProvisionedEvent(tenant *Tenant, owner *User) *TenantProvisionedEvent {
	return &TenantProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeTenantProvisioned, "Tenant", tenant.ID, tenant.ID,
		),
		TenantName:  tenant.Name,
		TenantSlug:  tenant.Slug,
		OwnerUserID: owner.ID.String(),
		OwnerEmail:  owner.Email,
	}
}
