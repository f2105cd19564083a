package persistence

import (
	"context"

	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
)

// EnsureDefaultRoles creates the platform roles memberships depend on.
// Existing roles are left untouched, so it is safe to run at every boot.
func EnsureDefaultRoles(ctx context.Context, roleRepo tenancy.RoleRepository) error {
	defaults := []struct {
		name string
		slug string
	}{
		{"Owner", tenancy.RoleSlugOwner},
		{"Admin", tenancy.RoleSlugAdmin},
		{"Member", tenancy.RoleSlugMember},
	}

	for _, d := range defaults {
		if _, err := roleRepo.FindBySlug(ctx, d.slug); err == nil {
			continue
		} else if err != shared.ErrNotFound {
			return err
		}

		role, err := tenancy.NewRole(d.name, d.slug)
		if err != nil {
			return err
		}
		if err := roleRepo.Save(ctx, role); err != nil {
			return err
		}
	}
	return nil
}
