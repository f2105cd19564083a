package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
)

// BillingInterval is the cadence a subscription renews on.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// IsValid reports whether the interval is a known value.
func (i BillingInterval) IsValid() bool {
	return i == IntervalMonthly || i == IntervalAnnual
}

// SubscriptionStatus is the lifecycle state of a tenant subscription.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	// StatusCancelled is terminal with respect to automatic recovery; only
	// administrative or new-purchase action moves it further.
	StatusCancelled SubscriptionStatus = "cancelled"
	// StatusReadOnly is the post-cancellation grace window: data stays
	// readable, writes are restricted, until ReadOnlyEndsAt passes.
	StatusReadOnly SubscriptionStatus = "read_only"
	// StatusLocked refuses all requests. Reached only by the scheduled sweep
	// once the read-only grace expires.
	StatusLocked SubscriptionStatus = "locked"
)

// providerStatusMap translates external billing provider statuses into
// internal ones. Provider statuses missing from this map are ignored.
var providerStatusMap = map[string]SubscriptionStatus{
	"active":   StatusActive,
	"trialing": StatusTrialing,
	"past_due": StatusPastDue,
	"canceled": StatusCancelled,
}

// TenantSubscription is the one-to-one subscription record for a tenant.
// Only the subscription lifecycle service and the provisioning transaction
// mutate it.
type TenantSubscription struct {
	shared.BaseEntity
	TenantID             uuid.UUID
	StripeSubscriptionID string
	Status               SubscriptionStatus
	BillingInterval      BillingInterval
	ModuleSlugs          []string
	SeatLimit            int
	SeatStripePriceID    string
	UsageQuota           int64
	UsageStripePriceID   string
	TrialEndsAt          *time.Time
	ReadOnlyEndsAt       *time.Time
	CurrentPeriodEnd     *time.Time
}

// NewSubscriptionInput carries the fields needed to create a subscription
// during provisioning.
type NewSubscriptionInput struct {
	TenantID             uuid.UUID
	StripeSubscriptionID string
	BillingInterval      BillingInterval
	ModuleSlugs          []string
	SeatLimit            int
	UsageQuota           int64
	TrialEndsAt          *time.Time
	CurrentPeriodEnd     *time.Time
}

// NewTenantSubscription creates a subscription. Status is Trialing when a
// trial end is present, Active otherwise.
func NewTenantSubscription(input NewSubscriptionInput) (*TenantSubscription, error) {
	if input.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !input.BillingInterval.IsValid() {
		return nil, shared.NewDomainError("INVALID_INTERVAL", "Invalid billing interval")
	}
	if input.SeatLimit < 0 || input.UsageQuota < 0 {
		return nil, shared.NewDomainError("INVALID_LIMITS", "Seat limit and usage quota cannot be negative")
	}

	status := StatusActive
	if input.TrialEndsAt != nil {
		status = StatusTrialing
	}

	return &TenantSubscription{
		BaseEntity:           shared.NewBaseEntity(),
		TenantID:             input.TenantID,
		StripeSubscriptionID: input.StripeSubscriptionID,
		Status:               status,
		BillingInterval:      input.BillingInterval,
		ModuleSlugs:          input.ModuleSlugs,
		SeatLimit:            input.SeatLimit,
		UsageQuota:           input.UsageQuota,
		TrialEndsAt:          input.TrialEndsAt,
		CurrentPeriodEnd:     input.CurrentPeriodEnd,
	}, nil
}

// ApplyProviderStatus maps a provider status onto the subscription and
// reports whether a transition happened. Unmapped statuses are no-ops.
func (s *TenantSubscription) ApplyProviderStatus(providerStatus string) bool {
	status, ok := providerStatusMap[providerStatus]
	if !ok {
		return false
	}
	s.Status = status
	return true
}

// MarkReadOnly enters the post-cancellation grace window ending graceDays
// from now, regardless of prior status.
func (s *TenantSubscription) MarkReadOnly(graceDays int) {
	endsAt := time.Now().AddDate(0, 0, graceDays)
	s.Status = StatusReadOnly
	s.ReadOnlyEndsAt = &endsAt
}

// MarkPastDue forces the subscription past due after a failed payment.
func (s *TenantSubscription) MarkPastDue() {
	s.Status = StatusPastDue
}

// Lock moves an expired read-only subscription to locked. It reports whether
// the transition applied: only read-only subscriptions whose grace window
// has passed are eligible.
func (s *TenantSubscription) Lock(now time.Time) bool {
	if s.Status != StatusReadOnly || s.ReadOnlyEndsAt == nil || s.ReadOnlyEndsAt.After(now) {
		return false
	}
	s.Status = StatusLocked
	return true
}

// IsActive reports whether the subscription grants full access
// (Active or Trialing).
func (s *TenantSubscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// IsReadOnly reports whether the subscription is in the read-only grace window.
func (s *TenantSubscription) IsReadOnly() bool {
	return s.Status == StatusReadOnly
}

// IsLocked reports whether the subscription is locked out.
func (s *TenantSubscription) IsLocked() bool {
	return s.Status == StatusLocked
}

// IsPastDue reports whether the subscription has a failed payment outstanding.
func (s *TenantSubscription) IsPastDue() bool {
	return s.Status == StatusPastDue
}

// PeriodStart approximates the start of the current billing period by
// subtracting one billing interval from the current period end. Returns
// false when no period end is known.
func (s *TenantSubscription) PeriodStart() (time.Time, bool) {
	if s.CurrentPeriodEnd == nil {
		return time.Time{}, false
	}
	if s.BillingInterval == IntervalAnnual {
		return s.CurrentPeriodEnd.AddDate(-1, 0, 0), true
	}
	return s.CurrentPeriodEnd.AddDate(0, -1, 0), true
}
