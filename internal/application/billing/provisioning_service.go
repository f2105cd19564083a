package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// ProvisioningInput carries the fields of a provider "checkout completed"
// event this service acts on.
type ProvisioningInput struct {
	SessionID      string
	SubscriptionID string
}

// ProvisioningResult reports what a provisioning run produced.
type ProvisioningResult struct {
	Provisioned bool
	Tenant      *tenancy.Tenant
	Owner       *tenancy.User
}

// ProvisioningService materializes a tenant from a completed checkout:
// owner user, tenant, subscription, and owner membership, committed in one
// transaction. Redelivered events are absorbed without creating anything.
type ProvisioningService struct {
	checkoutRepo     billing.CheckoutSessionRepository
	userRepo         tenancy.UserRepository
	tenantRepo       tenancy.TenantRepository
	roleRepo         tenancy.RoleRepository
	membershipRepo   tenancy.MembershipRepository
	subscriptionRepo billing.SubscriptionRepository
	seatRepo         billing.SeatSnapshotRepository
	gateway          StripeGateway
	eventBus         shared.EventPublisher
	txManager        shared.TransactionManager
	logger           *zap.Logger
}

// ProvisioningServiceConfig contains dependencies for ProvisioningService.
type ProvisioningServiceConfig struct {
	CheckoutRepo     billing.CheckoutSessionRepository
	UserRepo         tenancy.UserRepository
	TenantRepo       tenancy.TenantRepository
	RoleRepo         tenancy.RoleRepository
	MembershipRepo   tenancy.MembershipRepository
	SubscriptionRepo billing.SubscriptionRepository
	SeatRepo         billing.SeatSnapshotRepository
	Gateway          StripeGateway
	EventBus         shared.EventPublisher
	TxManager        shared.TransactionManager
	Logger           *zap.Logger
}

// NewProvisioningService creates a provisioning service.
func NewProvisioningService(cfg ProvisioningServiceConfig) *ProvisioningService {
	return &ProvisioningService{
		checkoutRepo:     cfg.CheckoutRepo,
		userRepo:         cfg.UserRepo,
		tenantRepo:       cfg.TenantRepo,
		roleRepo:         cfg.RoleRepo,
		membershipRepo:   cfg.MembershipRepo,
		subscriptionRepo: cfg.SubscriptionRepo,
		seatRepo:         cfg.SeatRepo,
		gateway:          cfg.Gateway,
		eventBus:         cfg.EventBus,
		txManager:        cfg.TxManager,
		logger:           cfg.Logger,
	}
}

// ProvisionFromCheckout handles a completed checkout event. An unknown
// session ID is a silent no-op (already processed, or never ours). A buyer
// email that already has a user is treated as an idempotent replay: the
// session row is consumed and nothing else changes.
func (s *ProvisioningService) ProvisionFromCheckout(ctx context.Context, input ProvisioningInput) (*ProvisioningResult, error) {
	session, err := s.checkoutRepo.FindBySessionID(ctx, input.SessionID)
	if err != nil {
		// Only a definitive miss is absorbed. A failing lookup must surface
		// so the provider keeps redelivering the event.
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("Checkout completion for untracked session ignored",
				zap.String("session_id", input.SessionID))
			return &ProvisioningResult{Provisioned: false}, nil
		}
		return nil, err
	}

	if exists, err := s.userRepo.EmailExists(ctx, session.Email); err != nil {
		return nil, err
	} else if exists {
		s.logger.Warn("Duplicate provisioning for existing email absorbed",
			zap.String("session_id", input.SessionID))
		if err := s.checkoutRepo.Delete(ctx, session.SessionID); err != nil {
			return nil, err
		}
		return &ProvisioningResult{Provisioned: false}, nil
	}

	owner, err := tenancy.NewProvisionedUser(session.Email)
	if err != nil {
		return nil, err
	}

	localPart := tenancy.EmailLocalPart(owner.Email)
	slug, err := s.uniqueSlug(ctx, localPart)
	if err != nil {
		return nil, err
	}

	tenant, err := tenancy.NewTenant(localPart, slug, false)
	if err != nil {
		return nil, err
	}

	// Provider calls happen before the local transaction opens so no row
	// lock is held across the network.
	if s.gateway != nil && s.gateway.IsConfigured() {
		customerID, err := s.gateway.CreateCustomer(ctx, tenant.Name, owner.Email)
		if err != nil {
			s.logger.Warn("Billing customer registration failed, continuing without",
				zap.String("tenant_slug", slug),
				zap.Error(err))
		} else {
			tenant.SetStripeCustomerID(customerID)
		}
	}

	subInput, err := s.buildSubscriptionInput(ctx, tenant, session, input.SubscriptionID)
	if err != nil {
		return nil, err
	}

	ownerRole, err := s.roleRepo.FindBySlug(ctx, tenancy.RoleSlugOwner)
	if err != nil {
		return nil, fmt.Errorf("owner role missing: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Save(txCtx, owner); err != nil {
			return err
		}
		if err := s.tenantRepo.Save(txCtx, tenant); err != nil {
			return err
		}

		subscription, err := billing.NewTenantSubscription(*subInput)
		if err != nil {
			return err
		}
		if err := s.subscriptionRepo.Save(txCtx, subscription); err != nil {
			return err
		}

		membership, err := tenancy.NewTenantMembership(tenant.ID, owner.ID, ownerRole.ID)
		if err != nil {
			return err
		}
		if err := s.membershipRepo.Save(txCtx, membership); err != nil {
			return err
		}

		snapshot, err := billing.NewSeatSnapshot(tenant.ID, 1)
		if err != nil {
			return err
		}
		if err := s.seatRepo.Append(txCtx, snapshot); err != nil {
			return err
		}

		return s.checkoutRepo.Delete(txCtx, session.SessionID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tenant provisioned from checkout",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tenant_slug", tenant.Slug),
		zap.String("session_id", session.SessionID))

	if s.eventBus != nil {
		event := tenancy.NewTenantProvisionedEvent(tenant, owner)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish tenant provisioned event",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err))
		}
	}

	return &ProvisioningResult{Provisioned: true, Tenant: tenant, Owner: owner}, nil
}

// uniqueSlug normalizes the email local part to the slug charset and
// appends -1, -2, ... until the slug is free.
func (s *ProvisioningService) uniqueSlug(ctx context.Context, localPart string) (string, error) {
	base := tenancy.Slugify(localPart)
	if base == "" {
		base = "tenant"
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := s.tenantRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// buildSubscriptionInput resolves the initial status from the provider
// subscription's trial end when a reference is present. A failing fetch
// aborts before any local write so the webhook redelivery can retry.
func (s *ProvisioningService) buildSubscriptionInput(ctx context.Context, tenant *tenancy.Tenant, session *billing.CheckoutSession, subscriptionID string) (*billing.NewSubscriptionInput, error) {
	input := &billing.NewSubscriptionInput{
		TenantID:             tenant.ID,
		StripeSubscriptionID: subscriptionID,
		BillingInterval:      session.BillingInterval,
		ModuleSlugs:          session.ModuleSlugs,
		SeatLimit:            session.SeatLimit,
		UsageQuota:           session.UsageQuota,
	}

	if subscriptionID == "" || s.gateway == nil || !s.gateway.IsConfigured() {
		return input, nil
	}

	providerSub, err := s.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("fetch provider subscription: %w", err)
	}
	input.TrialEndsAt = providerSub.TrialEnd
	input.CurrentPeriodEnd = providerSub.CurrentPeriodEnd
	return input, nil
}
