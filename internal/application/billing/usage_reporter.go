package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// UsageReporter mirrors metered consumption to the billing provider. The
// local ledgers are the source of truth; every report submits an absolute
// period total, so redelivery and races resolve to the same provider state.
type UsageReporter struct {
	gateway          StripeGateway
	subscriptionRepo billing.SubscriptionRepository
	logger           *zap.Logger
}

// NewUsageReporter creates a usage reporter.
func NewUsageReporter(
	gateway StripeGateway,
	subscriptionRepo billing.SubscriptionRepository,
	logger *zap.Logger,
) *UsageReporter {
	return &UsageReporter{
		gateway:          gateway,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// ReportSeats sets the period's peak seat count on the subscription's seat
// line item.
func (r *UsageReporter) ReportSeats(ctx context.Context, tenantID uuid.UUID, peak int64) error {
	return r.report(ctx, tenantID, peak, func(sub *billing.TenantSubscription) string {
		return sub.SeatStripePriceID
	})
}

// ReportUsage sets the period's usage total on the subscription's usage
// line item.
func (r *UsageReporter) ReportUsage(ctx context.Context, tenantID uuid.UUID, total int64) error {
	return r.report(ctx, tenantID, total, func(sub *billing.TenantSubscription) string {
		return sub.UsageStripePriceID
	})
}

// report is a no-op unless billing is configured, the subscription is
// active, and the relevant price reference has been synced onto it.
func (r *UsageReporter) report(ctx context.Context, tenantID uuid.UUID, quantity int64, priceID func(*billing.TenantSubscription) string) error {
	if r.gateway == nil || !r.gateway.IsConfigured() {
		return nil
	}

	sub, err := r.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err != nil || sub == nil {
		return nil
	}
	if !sub.IsActive() || sub.StripeSubscriptionID == "" {
		return nil
	}
	price := priceID(sub)
	if price == "" {
		return nil
	}

	itemID, err := r.gateway.FindSubscriptionItemByPrice(ctx, sub.StripeSubscriptionID, price)
	if err != nil {
		return err
	}
	if itemID == "" {
		r.logger.Debug("Subscription has no line item for synced price",
			zap.String("tenant_id", tenantID.String()),
			zap.String("price_id", price))
		return nil
	}

	if err := r.gateway.SetUsage(ctx, itemID, quantity, time.Now().UTC()); err != nil {
		return err
	}

	r.logger.Info("Reported metered quantity",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_item_id", itemID),
		zap.Int64("quantity", quantity))
	return nil
}
