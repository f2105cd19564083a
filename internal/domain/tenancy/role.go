package tenancy

import "github.com/nexora/backend/internal/domain/shared"

// Well-known role slugs. The owner role is load-bearing: a tenant must keep
// at least one owner membership at all times.
const (
	RoleSlugOwner  = "owner"
	RoleSlugAdmin  = "admin"
	RoleSlugMember = "member"
)

// Role is a named permission set assignable to a tenant membership.
type Role struct {
	shared.BaseEntity
	Name string
	Slug string
}

// NewRole creates a role.
func NewRole(name, slug string) (*Role, error) {
	if name == "" || slug == "" {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role name and slug are required")
	}
	return &Role{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       slug,
	}, nil
}

// IsOwner reports whether this is the owner role.
func (r *Role) IsOwner() bool {
	return r.Slug == RoleSlugOwner
}
