package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SeatReporter pushes the current period's peak seat count to the billing
// provider. Satisfied by MeteringService.
type SeatReporter interface {
	ReportSeats(ctx context.Context, tenantID uuid.UUID) error
}

// SubscriptionUpdateInput carries the fields of a provider "subscription
// updated" event this service acts on.
type SubscriptionUpdateInput struct {
	SubscriptionID   string
	ProviderStatus   string
	CurrentPeriodEnd *time.Time
	TrialEnd         *time.Time
}

// SubscriptionService applies provider lifecycle events to tenant
// subscriptions and runs the time-based read_only to locked decay. Events
// referencing subscriptions this system never provisioned are silent
// no-ops: provider sandboxes and retries routinely emit them.
type SubscriptionService struct {
	subscriptionRepo billing.SubscriptionRepository
	seatReporter     SeatReporter
	config           SubscriptionConfig
	logger           *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// SubscriptionConfig contains configuration for subscription lifecycle.
type SubscriptionConfig struct {
	// ReadOnlyGraceDays is how long a cancelled-at-provider tenant keeps
	// read access before locking.
	ReadOnlyGraceDays int
}

// NewSubscriptionService creates a subscription lifecycle service.
func NewSubscriptionService(
	subscriptionRepo billing.SubscriptionRepository,
	seatReporter SeatReporter,
	config SubscriptionConfig,
	logger *zap.Logger,
) *SubscriptionService {
	if config.ReadOnlyGraceDays <= 0 {
		config.ReadOnlyGraceDays = 30
	}
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		seatReporter:     seatReporter,
		config:           config,
		logger:           logger,
		locks:            make(map[string]*sync.Mutex),
	}
}

// GetByTenant returns the tenant's subscription.
func (s *SubscriptionService) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.TenantSubscription, error) {
	sub, err := s.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return sub, nil
}

// HandleSubscriptionUpdated maps the provider status onto the local state
// machine and refreshes period and trial timestamps. When the period end
// advances and the subscription is active, the rollover triggers a one-time
// seat report for the new period.
func (s *SubscriptionService) HandleSubscriptionUpdated(ctx context.Context, input SubscriptionUpdateInput) error {
	unlock := s.lockRef(input.SubscriptionID)
	defer unlock()

	sub, err := s.findTracked(ctx, input.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		s.logger.Debug("Subscription update for untracked reference ignored",
			zap.String("subscription_id", input.SubscriptionID))
		return nil
	}

	previousPeriodEnd := sub.CurrentPeriodEnd

	if input.ProviderStatus != "" && !sub.ApplyProviderStatus(input.ProviderStatus) {
		s.logger.Debug("Unmapped provider status ignored",
			zap.String("subscription_id", input.SubscriptionID),
			zap.String("provider_status", input.ProviderStatus))
	}
	if input.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = input.CurrentPeriodEnd
	}
	if input.TrialEnd != nil {
		sub.TrialEndsAt = input.TrialEnd
	}

	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return err
	}

	s.logger.Info("Subscription updated",
		zap.String("tenant_id", sub.TenantID.String()),
		zap.String("subscription_id", input.SubscriptionID),
		zap.String("status", string(sub.Status)))

	if s.periodRolledOver(previousPeriodEnd, sub.CurrentPeriodEnd) && sub.IsActive() && s.seatReporter != nil {
		if err := s.seatReporter.ReportSeats(ctx, sub.TenantID); err != nil {
			s.logger.Warn("Period rollover seat report failed",
				zap.String("tenant_id", sub.TenantID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// HandleSubscriptionDeleted moves the subscription into the read-only
// grace window regardless of its prior status.
func (s *SubscriptionService) HandleSubscriptionDeleted(ctx context.Context, subscriptionID string) error {
	unlock := s.lockRef(subscriptionID)
	defer unlock()

	sub, err := s.findTracked(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		s.logger.Debug("Subscription deletion for untracked reference ignored",
			zap.String("subscription_id", subscriptionID))
		return nil
	}

	sub.MarkReadOnly(s.config.ReadOnlyGraceDays)
	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return err
	}

	s.logger.Info("Subscription entered read-only grace period",
		zap.String("tenant_id", sub.TenantID.String()),
		zap.String("subscription_id", subscriptionID),
		zap.Timep("read_only_ends_at", sub.ReadOnlyEndsAt))
	return nil
}

// HandlePaymentFailed marks the subscription past due. No other effect.
func (s *SubscriptionService) HandlePaymentFailed(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return nil
	}
	unlock := s.lockRef(subscriptionID)
	defer unlock()

	sub, err := s.findTracked(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		s.logger.Debug("Payment failure for untracked reference ignored",
			zap.String("subscription_id", subscriptionID))
		return nil
	}

	sub.MarkPastDue()
	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return err
	}

	s.logger.Info("Subscription marked past due",
		zap.String("tenant_id", sub.TenantID.String()),
		zap.String("subscription_id", subscriptionID))
	return nil
}

// SweepExpired locks every subscription whose read-only grace window has
// lapsed. Pure time-based decay, run at least daily. Returns the number of
// subscriptions locked.
func (s *SubscriptionService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.subscriptionRepo.FindExpiredReadOnly(ctx, now)
	if err != nil {
		return 0, err
	}

	locked := 0
	for _, sub := range expired {
		if !sub.Lock(now) {
			continue
		}
		if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
			s.logger.Error("Failed to lock expired subscription",
				zap.String("tenant_id", sub.TenantID.String()),
				zap.Error(err))
			continue
		}
		locked++
		s.logger.Info("Subscription locked after grace period",
			zap.String("tenant_id", sub.TenantID.String()),
			zap.String("subscription_id", sub.StripeSubscriptionID))
	}
	return locked, nil
}

// findTracked resolves a provider subscription reference to the local
// record. A reference this system never provisioned comes back nil; any
// other lookup failure surfaces so the provider redelivers the event.
func (s *SubscriptionService) findTracked(ctx context.Context, subscriptionID string) (*billing.TenantSubscription, error) {
	sub, err := s.subscriptionRepo.FindByStripeSubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// periodRolledOver reports whether the period end advanced, including the
// first time a period end appears.
func (s *SubscriptionService) periodRolledOver(previous, current *time.Time) bool {
	if current == nil {
		return false
	}
	return previous == nil || !previous.Equal(*current)
}

// lockRef serializes event handling per subscription reference so two
// concurrent deliveries for the same subscription cannot lose an update.
func (s *SubscriptionService) lockRef(subscriptionID string) func() {
	s.mu.Lock()
	m, ok := s.locks[subscriptionID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[subscriptionID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
