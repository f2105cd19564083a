package tenancy

import (
	"fmt"
	"strings"

	"github.com/nexora/backend/internal/domain/shared"
)

// Tenant represents an isolated customer organization, the unit of data
// partitioning. Its ID is an opaque UUID rather than a sequential key because
// tenant ids travel in the signed X-Tenant-ID header channel and must be
// unguessable.
type Tenant struct {
	shared.BaseEntity
	Name             string
	Slug             string
	Active           bool
	StripeCustomerID string
}

// NewTenant creates a tenant with the given name and slug. Tenants created
// from a completed purchase start inactive and are activated when onboarding
// completes; interactive signup creates them active directly.
func NewTenant(name, slug string, active bool) (*Tenant, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       slug,
		Active:     active,
	}, nil
}

// Activate marks the tenant active.
func (t *Tenant) Activate() {
	t.Active = true
}

// Deactivate marks the tenant inactive. Inactive tenants fail resolution
// with a 403-equivalent outcome.
func (t *Tenant) Deactivate() {
	t.Active = false
}

// SetStripeCustomerID records the external billing customer reference.
func (t *Tenant) SetStripeCustomerID(customerID string) {
	t.StripeCustomerID = customerID
}

// ValidateSlug checks the URL-safe slug charset: lowercase alphanumerics and
// hyphens. Slugs are immutable once assigned; they are the subdomain label
// and the external product correlation key.
func ValidateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot be empty")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_SLUG", "Tenant slug may only contain lowercase letters, digits, and hyphens")
		}
	}
	return nil
}

// Slugify normalizes an arbitrary string into the slug charset. Characters
// outside [a-z0-9] become hyphens; runs of hyphens collapse and leading or
// trailing hyphens are trimmed.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// TenantURL builds an absolute URL on the tenant's subdomain.
func TenantURL(scheme, baseDomain string, tenant *Tenant, path string) string {
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s://%s.%s%s", scheme, tenant.Slug, baseDomain, path)
}
