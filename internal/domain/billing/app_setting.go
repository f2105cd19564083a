package billing

import "github.com/nexora/backend/internal/domain/shared"

// Well-known application setting keys for synced Stripe identifiers.
const (
	SettingSeatMonthlyPriceID = "billing.seat_monthly_price_id"
	SettingSeatAnnualPriceID  = "billing.seat_annual_price_id"
	SettingUsagePriceID       = "billing.usage_metered_price_id"
	SettingUsageMeterID       = "billing.usage_meter_id"
)

// AppSetting is a key/value row for instance-level configuration that is
// produced at runtime rather than deploy time, such as Stripe price IDs
// written by catalog sync.
type AppSetting struct {
	shared.BaseEntity
	Key   string
	Value string
}

// NewAppSetting creates a setting row.
func NewAppSetting(key, value string) (*AppSetting, error) {
	if key == "" {
		return nil, shared.NewDomainError("INVALID_SETTING_KEY", "Setting key cannot be empty")
	}
	return &AppSetting{
		BaseEntity: shared.NewBaseEntity(),
		Key:        key,
		Value:      value,
	}, nil
}
