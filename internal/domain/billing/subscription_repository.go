package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionRepository persists tenant subscriptions.
type SubscriptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TenantSubscription, error)
	FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*TenantSubscription, error)
	FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*TenantSubscription, error)
	// FindExpiredReadOnly returns subscriptions in the read-only grace state
	// whose grace deadline is at or before the given time.
	FindExpiredReadOnly(ctx context.Context, now time.Time) ([]*TenantSubscription, error)
	Save(ctx context.Context, subscription *TenantSubscription) error
}
