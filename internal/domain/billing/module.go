package billing

import (
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
)

// Module is a sellable product module in the catalog. Each active module
// maps to one Stripe product with one monthly and one annual licensed price;
// the synced price IDs are cached on the row so catalog sync can tell
// whether anything billing-relevant changed.
type Module struct {
	shared.BaseEntity
	Name                 string
	Slug                 string
	Description          string
	MonthlyPriceCents    int64
	AnnualPriceCents     int64
	StripeMonthlyPriceID *string
	StripeAnnualPriceID  *string
	Active               bool
	SortOrder            int
}

// NewModule creates a catalog module. The slug is derived from the name
// when not supplied.
func NewModule(name, slug, description string, monthlyCents, annualCents int64) (*Module, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MODULE_NAME", "Module name cannot be empty")
	}
	if slug == "" {
		slug = tenancy.Slugify(name)
	}
	if err := tenancy.ValidateSlug(slug); err != nil {
		return nil, err
	}
	if monthlyCents < 0 || annualCents < 0 {
		return nil, shared.NewDomainError("INVALID_MODULE_PRICE", "Module prices cannot be negative")
	}

	return &Module{
		BaseEntity:        shared.NewBaseEntity(),
		Name:              name,
		Slug:              slug,
		Description:       description,
		MonthlyPriceCents: monthlyCents,
		AnnualPriceCents:  annualCents,
		Active:            true,
	}, nil
}

// BillingFieldsChanged reports whether an update touches fields that feed
// Stripe. Ordering or activation changes alone do not require a sync.
func (m *Module) BillingFieldsChanged(name, description string, monthlyCents, annualCents int64) bool {
	return m.Name != name ||
		m.Description != description ||
		m.MonthlyPriceCents != monthlyCents ||
		m.AnnualPriceCents != annualCents
}

// PriceForInterval returns the module's licensed price in cents for the
// given billing interval.
func (m *Module) PriceForInterval(interval BillingInterval) int64 {
	if interval == IntervalAnnual {
		return m.AnnualPriceCents
	}
	return m.MonthlyPriceCents
}
