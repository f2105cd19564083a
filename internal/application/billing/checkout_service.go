package billing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// checkoutTTL bounds how long a purchase intent stays redeemable.
const checkoutTTL = 24 * time.Hour

// CheckoutInput captures a buyer's selection at the start of a purchase.
type CheckoutInput struct {
	Email           string
	ModuleSlugs     []string
	SeatLimit       int
	UsageQuota      int64
	BillingInterval billing.BillingInterval
}

// CheckoutResult pairs the stored purchase intent with the provider URL
// the buyer is redirected to.
type CheckoutResult struct {
	Session     *billing.CheckoutSession
	RedirectURL string
}

// CheckoutConfig carries the knobs baked into every provider checkout.
type CheckoutConfig struct {
	TrialDays  int
	SuccessURL string
	CancelURL  string
}

// CheckoutService opens provider checkout sessions for a module selection
// and records the purchase intent so the provisioning transaction can
// redeem it when the provider confirms payment.
type CheckoutService struct {
	checkoutRepo billing.CheckoutSessionRepository
	moduleRepo   billing.ModuleRepository
	settingRepo  billing.AppSettingRepository
	gateway      StripeGateway
	config       CheckoutConfig
	logger       *zap.Logger
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(
	checkoutRepo billing.CheckoutSessionRepository,
	moduleRepo billing.ModuleRepository,
	settingRepo billing.AppSettingRepository,
	gateway StripeGateway,
	config CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		checkoutRepo: checkoutRepo,
		moduleRepo:   moduleRepo,
		settingRepo:  settingRepo,
		gateway:      gateway,
		config:       config,
		logger:       logger,
	}
}

// BeginCheckout validates the module selection, opens a provider checkout
// session with the selection's line items, and stores the purchase intent
// keyed by the provider-issued session ID.
func (s *CheckoutService) BeginCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if s.gateway == nil || !s.gateway.IsConfigured() {
		return nil, shared.ErrBillingUnavailable
	}
	if !input.BillingInterval.IsValid() {
		return nil, shared.NewDomainError("INVALID_INTERVAL", "Invalid billing interval")
	}

	lineItems, err := s.buildLineItems(ctx, input)
	if err != nil {
		return nil, err
	}

	provider, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionInput{
		Email:     input.Email,
		LineItems: lineItems,
		TrialDays: int64(s.config.TrialDays),
		Metadata: map[string]string{
			"seat_limit":       strconv.Itoa(input.SeatLimit),
			"usage_quota":      strconv.FormatInt(input.UsageQuota, 10),
			"module_slugs":     strings.Join(input.ModuleSlugs, ","),
			"billing_interval": string(input.BillingInterval),
		},
		SuccessURL: s.config.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	session, err := billing.NewCheckoutSession(
		provider.ID,
		input.Email,
		input.ModuleSlugs,
		input.SeatLimit,
		input.UsageQuota,
		input.BillingInterval,
		time.Now().UTC().Add(checkoutTTL),
	)
	if err != nil {
		return nil, err
	}

	if err := s.checkoutRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout session opened",
		zap.String("session_id", session.SessionID),
		zap.Strings("module_slugs", session.ModuleSlugs))
	return &CheckoutResult{Session: session, RedirectURL: provider.URL}, nil
}

// buildLineItems assembles one licensed line per selected module plus a
// seat line priced for the chosen interval. Modules must be active and
// already synced to the provider.
func (s *CheckoutService) buildLineItems(ctx context.Context, input CheckoutInput) ([]CheckoutLineItem, error) {
	var items []CheckoutLineItem
	for _, slug := range input.ModuleSlugs {
		module, err := s.moduleRepo.FindBySlug(ctx, slug)
		if err != nil || module == nil || !module.Active {
			return nil, shared.NewDomainError("MODULE_NOT_AVAILABLE", "Module not available: "+slug)
		}

		priceID := module.StripeMonthlyPriceID
		if input.BillingInterval == billing.IntervalAnnual {
			priceID = module.StripeAnnualPriceID
		}
		if priceID == nil || *priceID == "" {
			return nil, shared.NewDomainError("MODULE_NOT_SYNCED", "Module has no synced price: "+slug)
		}
		items = append(items, CheckoutLineItem{PriceID: *priceID, Quantity: 1})
	}

	seatPriceID, err := s.seatPriceID(ctx, input.BillingInterval)
	if err != nil {
		return nil, err
	}
	if seatPriceID != "" && input.SeatLimit > 0 {
		items = append(items, CheckoutLineItem{PriceID: seatPriceID, Quantity: int64(input.SeatLimit)})
	}
	return items, nil
}

// seatPriceID returns the synced seat price for the interval, or empty
// string when seat pricing has not been synced yet.
func (s *CheckoutService) seatPriceID(ctx context.Context, interval billing.BillingInterval) (string, error) {
	key := billing.SettingSeatMonthlyPriceID
	if interval == billing.IntervalAnnual {
		key = billing.SettingSeatAnnualPriceID
	}

	priceID, err := s.settingRepo.Get(ctx, key)
	if err != nil {
		if err == shared.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return priceID, nil
}
