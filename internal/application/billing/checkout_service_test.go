package billing

import (
	"context"
	"testing"
	"time"

	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func syncedModule(t *testing.T, slug, monthlyPriceID, annualPriceID string) *billing.Module {
	t.Helper()
	module, err := billing.NewModule(slug, slug, "", 4900, 49000)
	require.NoError(t, err)
	module.StripeMonthlyPriceID = &monthlyPriceID
	module.StripeAnnualPriceID = &annualPriceID
	return module
}

type checkoutMocks struct {
	checkoutRepo *mockCheckoutSessionRepository
	moduleRepo   *mockModuleRepository
	settingRepo  *mockAppSettingRepository
	gateway      *mockStripeGateway
}

func newCheckoutMocks() *checkoutMocks {
	return &checkoutMocks{
		checkoutRepo: new(mockCheckoutSessionRepository),
		moduleRepo:   new(mockModuleRepository),
		settingRepo:  new(mockAppSettingRepository),
		gateway:      new(mockStripeGateway),
	}
}

func (m *checkoutMocks) service() *CheckoutService {
	return NewCheckoutService(m.checkoutRepo, m.moduleRepo, m.settingRepo, m.gateway, CheckoutConfig{
		TrialDays:  14,
		SuccessURL: "https://nexora.test/checkout/success",
		CancelURL:  "https://nexora.test/checkout/cancelled",
	}, zap.NewNop())
}

func TestCheckoutService_BeginCheckout(t *testing.T) {
	t.Run("opens a provider session and records the intent", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(syncedModule(t, "crm", "price_crm_m", "price_crm_a"), nil)
		m.moduleRepo.On("FindBySlug", mock.Anything, "invoicing").Return(syncedModule(t, "invoicing", "price_inv_m", "price_inv_a"), nil)
		m.settingRepo.On("Get", mock.Anything, billing.SettingSeatMonthlyPriceID).Return("price_seat_m", nil)
		m.gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in CheckoutSessionInput) bool {
			return in.Email == "ada@example.com" &&
				len(in.LineItems) == 3 &&
				in.LineItems[0] == CheckoutLineItem{PriceID: "price_crm_m", Quantity: 1} &&
				in.LineItems[1] == CheckoutLineItem{PriceID: "price_inv_m", Quantity: 1} &&
				in.LineItems[2] == CheckoutLineItem{PriceID: "price_seat_m", Quantity: 10} &&
				in.TrialDays == 14 &&
				in.Metadata["module_slugs"] == "crm,invoicing" &&
				in.Metadata["seat_limit"] == "10" &&
				in.Metadata["usage_quota"] == "5000" &&
				in.Metadata["billing_interval"] == "monthly" &&
				in.SuccessURL == "https://nexora.test/checkout/success?session_id={CHECKOUT_SESSION_ID}" &&
				in.CancelURL == "https://nexora.test/checkout/cancelled"
		})).Return(&ProviderCheckoutSession{ID: "cs_live123", URL: "https://pay.test/cs_live123"}, nil)
		m.checkoutRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.CheckoutSession")).Return(nil)

		result, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm", "invoicing"},
			SeatLimit:       10,
			UsageQuota:      5000,
			BillingInterval: billing.IntervalMonthly,
		})

		require.NoError(t, err)
		assert.Equal(t, "cs_live123", result.Session.SessionID)
		assert.Equal(t, "https://pay.test/cs_live123", result.RedirectURL)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), result.Session.ExpiresAt, time.Minute)
		m.gateway.AssertExpectations(t)
		m.checkoutRepo.AssertExpectations(t)
	})

	t.Run("annual interval selects annual prices", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(syncedModule(t, "crm", "price_crm_m", "price_crm_a"), nil)
		m.settingRepo.On("Get", mock.Anything, billing.SettingSeatAnnualPriceID).Return("price_seat_a", nil)
		m.gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in CheckoutSessionInput) bool {
			return len(in.LineItems) == 2 &&
				in.LineItems[0].PriceID == "price_crm_a" &&
				in.LineItems[1] == CheckoutLineItem{PriceID: "price_seat_a", Quantity: 5} &&
				in.Metadata["billing_interval"] == "annual"
		})).Return(&ProviderCheckoutSession{ID: "cs_annual", URL: "https://pay.test/cs_annual"}, nil)
		m.checkoutRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.CheckoutSession")).Return(nil)

		result, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			SeatLimit:       5,
			BillingInterval: billing.IntervalAnnual,
		})

		require.NoError(t, err)
		assert.Equal(t, "cs_annual", result.Session.SessionID)
		m.gateway.AssertExpectations(t)
	})

	t.Run("omits the seat line while seat pricing is unsynced", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(syncedModule(t, "crm", "price_crm_m", "price_crm_a"), nil)
		m.settingRepo.On("Get", mock.Anything, billing.SettingSeatMonthlyPriceID).Return("", shared.ErrNotFound)
		m.gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in CheckoutSessionInput) bool {
			return len(in.LineItems) == 1 && in.LineItems[0].PriceID == "price_crm_m"
		})).Return(&ProviderCheckoutSession{ID: "cs_noseat", URL: "https://pay.test/cs_noseat"}, nil)
		m.checkoutRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.CheckoutSession")).Return(nil)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			SeatLimit:       10,
			BillingInterval: billing.IntervalMonthly,
		})

		require.NoError(t, err)
		m.gateway.AssertExpectations(t)
	})

	t.Run("rejects an inactive module", func(t *testing.T) {
		m := newCheckoutMocks()
		inactive := syncedModule(t, "crm", "price_crm_m", "price_crm_a")
		inactive.Active = false

		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(inactive, nil)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			BillingInterval: billing.IntervalMonthly,
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MODULE_NOT_AVAILABLE", domainErr.Code)
		m.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown module", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"ghost"},
			BillingInterval: billing.IntervalMonthly,
		})

		assert.Error(t, err)
		m.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects a module without a synced price", func(t *testing.T) {
		m := newCheckoutMocks()
		unsynced, err := billing.NewModule("crm", "crm", "", 4900, 49000)
		require.NoError(t, err)

		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(unsynced, nil)

		_, err = m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			BillingInterval: billing.IntervalMonthly,
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MODULE_NOT_SYNCED", domainErr.Code)
		m.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid billing interval", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			BillingInterval: billing.BillingInterval("weekly"),
		})

		assert.Error(t, err)
		m.checkoutRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("requires configured billing", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(false)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			BillingInterval: billing.IntervalMonthly,
		})

		assert.ErrorIs(t, err, shared.ErrBillingUnavailable)
		m.moduleRepo.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})

	t.Run("provider failure surfaces without recording an intent", func(t *testing.T) {
		m := newCheckoutMocks()
		m.gateway.On("IsConfigured").Return(true)
		m.moduleRepo.On("FindBySlug", mock.Anything, "crm").Return(syncedModule(t, "crm", "price_crm_m", "price_crm_a"), nil)
		m.settingRepo.On("Get", mock.Anything, billing.SettingSeatMonthlyPriceID).Return("price_seat_m", nil)
		m.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := m.service().BeginCheckout(context.Background(), CheckoutInput{
			Email:           "ada@example.com",
			ModuleSlugs:     []string{"crm"},
			SeatLimit:       3,
			BillingInterval: billing.IntervalMonthly,
		})

		assert.ErrorIs(t, err, assert.AnError)
		m.checkoutRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
