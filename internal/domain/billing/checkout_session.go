package billing

import (
	"time"

	"github.com/nexora/backend/internal/domain/shared"
)

// CheckoutSession is the durable bridge between an anonymous checkout and
// the tenant eventually provisioned from it. Created when a purchase flow
// starts; deleted exactly once by the provisioning transaction on successful
// or duplicate-detected completion. Never mutated otherwise.
type CheckoutSession struct {
	shared.BaseEntity
	SessionID       string
	Email           string
	ModuleSlugs     []string
	SeatLimit       int
	UsageQuota      int64
	BillingInterval BillingInterval
	ExpiresAt       time.Time
}

// NewCheckoutSession creates a pending purchase intent.
func NewCheckoutSession(sessionID, email string, moduleSlugs []string, seatLimit int, usageQuota int64, interval BillingInterval, expiresAt time.Time) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("INVALID_SESSION", "Checkout session ID cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Checkout email cannot be empty")
	}
	if !interval.IsValid() {
		return nil, shared.NewDomainError("INVALID_INTERVAL", "Invalid billing interval")
	}

	return &CheckoutSession{
		BaseEntity:      shared.NewBaseEntity(),
		SessionID:       sessionID,
		Email:           email,
		ModuleSlugs:     moduleSlugs,
		SeatLimit:       seatLimit,
		UsageQuota:      usageQuota,
		BillingInterval: interval,
		ExpiresAt:       expiresAt,
	}, nil
}

// IsExpired reports whether the purchase intent has lapsed.
func (s *CheckoutSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
