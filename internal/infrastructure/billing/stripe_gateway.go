package billing

import (
	"context"
	"fmt"
	"time"

	appBilling "github.com/nexora/backend/internal/application/billing"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/billing/meter"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/price"
	"github.com/stripe/stripe-go/v81/product"
	"github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/usagerecord"
	"go.uber.org/zap"
)

// StripeGateway implements the application billing port against the Stripe
// API. A gateway built from an unconfigured StripeConfig reports
// IsConfigured false and is never expected to receive calls.
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a Stripe gateway. Validation is skipped for an
// unconfigured deployment so the rest of the system can still boot.
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if config.IsConfigured() {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		config.InitStripeClient()
	}
	return &StripeGateway{
		config: config,
		logger: logger,
	}, nil
}

// IsConfigured reports whether Stripe credentials are present.
func (g *StripeGateway) IsConfigured() bool {
	return g.config.IsConfigured()
}

// CreateCustomer registers a billing customer and returns its ID.
func (g *StripeGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	g.logger.Info("Created Stripe customer",
		zap.String("customer_id", cust.ID))
	return cust.ID, nil
}

// CreateCheckoutSession opens a hosted subscription checkout and returns
// the provider-issued session.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, input appBilling.CheckoutSessionInput) (*appBilling.ProviderCheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(input.Email),
		SuccessURL:    stripe.String(input.SuccessURL),
		CancelURL:     stripe.String(input.CancelURL),
	}
	for _, item := range input.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	subData := &stripe.CheckoutSessionSubscriptionDataParams{}
	if input.TrialDays > 0 {
		subData.TrialPeriodDays = stripe.Int64(input.TrialDays)
	}
	if len(input.Metadata) > 0 {
		subData.Metadata = input.Metadata
	}
	params.SubscriptionData = subData
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	g.logger.Info("Created Stripe checkout session",
		zap.String("session_id", sess.ID))
	return &appBilling.ProviderCheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSubscription fetches a provider subscription with its line items.
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*appBilling.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	out := &appBilling.ProviderSubscription{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: unixTime(sub.CurrentPeriodEnd),
		TrialEnd:         unixTime(sub.TrialEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			providerItem := appBilling.ProviderSubscriptionItem{ID: item.ID}
			if item.Price != nil {
				providerItem.PriceID = item.Price.ID
			}
			out.Items = append(out.Items, providerItem)
		}
	}
	return out, nil
}

// EnsureProduct find-or-creates a product under the given deterministic ID
// and refreshes its name and description when they drift.
func (g *StripeGateway) EnsureProduct(ctx context.Context, productID, name, description string) error {
	getParams := &stripe.ProductParams{}
	getParams.Context = ctx

	existing, err := product.Get(productID, getParams)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("stripe: failed to get product: %w", err)
		}

		createParams := &stripe.ProductParams{
			ID:   stripe.String(productID),
			Name: stripe.String(name),
		}
		if description != "" {
			createParams.Description = stripe.String(description)
		}
		createParams.Context = ctx

		if _, err := product.New(createParams); err != nil {
			return fmt.Errorf("stripe: failed to create product: %w", err)
		}
		g.logger.Info("Created Stripe product", zap.String("product_id", productID))
		return nil
	}

	if existing.Name != name {
		updateParams := &stripe.ProductParams{Name: stripe.String(name)}
		updateParams.Context = ctx
		if _, err := product.Update(productID, updateParams); err != nil {
			return fmt.Errorf("stripe: failed to update product: %w", err)
		}
		g.logger.Info("Renamed Stripe product", zap.String("product_id", productID))
	}
	return nil
}

// GetPrice retrieves a price with its tiers expanded. A missing price
// returns nil so callers can tell deletion apart from a transient failure.
func (g *StripeGateway) GetPrice(ctx context.Context, priceID string) (*appBilling.ProviderPrice, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("tiers")

	p, err := price.Get(priceID, params)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stripe: failed to get price: %w", err)
	}

	out := &appBilling.ProviderPrice{
		ID:              p.ID,
		Active:          p.Active,
		UnitAmountCents: p.UnitAmount,
	}
	if p.Recurring != nil {
		out.Interval = string(p.Recurring.Interval)
	}
	for _, tier := range p.Tiers {
		out.Tiers = append(out.Tiers, appBilling.PriceTier{
			UpTo:            tier.UpTo,
			UnitAmountCents: tier.UnitAmount,
		})
	}
	return out, nil
}

// CreateLicensedPrice creates a flat recurring price.
func (g *StripeGateway) CreateLicensedPrice(ctx context.Context, input appBilling.LicensedPriceInput) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(input.ProductID),
		Currency:   stripe.String(g.config.Currency),
		UnitAmount: stripe.Int64(input.UnitAmountCents),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(input.Interval),
		},
	}
	if input.Nickname != "" {
		params.Nickname = stripe.String(input.Nickname)
	}
	params.Context = ctx

	p, err := price.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create price: %w", err)
	}

	g.logger.Info("Created Stripe price",
		zap.String("product_id", input.ProductID),
		zap.String("price_id", p.ID))
	return p.ID, nil
}

// CreateTieredPrice creates a graduated tiered metered price: zero cost up
// to FreeUnits, the overage amount per unit beyond.
func (g *StripeGateway) CreateTieredPrice(ctx context.Context, input appBilling.TieredPriceInput) (string, error) {
	recurring := &stripe.PriceRecurringParams{
		Interval:  stripe.String(input.Interval),
		UsageType: stripe.String("metered"),
	}
	if input.MeterID != "" {
		recurring.Meter = stripe.String(input.MeterID)
	}

	params := &stripe.PriceParams{
		Product:       stripe.String(input.ProductID),
		Currency:      stripe.String(g.config.Currency),
		BillingScheme: stripe.String("tiered"),
		TiersMode:     stripe.String("graduated"),
		Tiers: []*stripe.PriceTierParams{
			{
				UpTo:       stripe.Int64(input.FreeUnits),
				UnitAmount: stripe.Int64(0),
			},
			{
				UpToInf:    stripe.Bool(true),
				UnitAmount: stripe.Int64(input.OverageAmountCents),
			},
		},
		Recurring: recurring,
	}
	if input.Nickname != "" {
		params.Nickname = stripe.String(input.Nickname)
	}
	params.Context = ctx

	p, err := price.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create tiered price: %w", err)
	}

	g.logger.Info("Created Stripe tiered price",
		zap.String("product_id", input.ProductID),
		zap.String("price_id", p.ID))
	return p.ID, nil
}

// DeactivatePrice archives a price.
func (g *StripeGateway) DeactivatePrice(ctx context.Context, priceID string) error {
	params := &stripe.PriceParams{Active: stripe.Bool(false)}
	params.Context = ctx

	if _, err := price.Update(priceID, params); err != nil {
		return fmt.Errorf("stripe: failed to deactivate price: %w", err)
	}
	return nil
}

// FindMeterByEventName returns the ID of an active meter with the given
// event name, or empty string when none exists.
func (g *StripeGateway) FindMeterByEventName(ctx context.Context, eventName string) (string, error) {
	params := &stripe.BillingMeterListParams{
		Status: stripe.String("active"),
	}
	params.Context = ctx

	iter := meter.List(params)
	for iter.Next() {
		m := iter.BillingMeter()
		if m.EventName == eventName {
			return m.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe: failed to list meters: %w", err)
	}
	return "", nil
}

// CreateMeter creates a sum-aggregated usage meter.
func (g *StripeGateway) CreateMeter(ctx context.Context, eventName, displayName string) (string, error) {
	params := &stripe.BillingMeterParams{
		DisplayName: stripe.String(displayName),
		EventName:   stripe.String(eventName),
		DefaultAggregation: &stripe.BillingMeterDefaultAggregationParams{
			Formula: stripe.String("sum"),
		},
	}
	params.Context = ctx

	m, err := meter.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create meter: %w", err)
	}
	return m.ID, nil
}

// FindSubscriptionItemByPrice returns the subscription item carrying the
// given price, or empty string when the subscription has none.
func (g *StripeGateway) FindSubscriptionItemByPrice(ctx context.Context, subscriptionID, priceID string) (string, error) {
	sub, err := g.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	for _, item := range sub.Items {
		if item.PriceID == priceID {
			return item.ID, nil
		}
	}
	return "", nil
}

// SetUsage reports an absolute usage total for the current period on a
// subscription item.
func (g *StripeGateway) SetUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error {
	params := &stripe.UsageRecordParams{
		SubscriptionItem: stripe.String(subscriptionItemID),
		Quantity:         stripe.Int64(quantity),
		Action:           stripe.String(stripe.UsageRecordActionSet),
		Timestamp:        stripe.Int64(at.Unix()),
	}
	params.Context = ctx

	if _, err := usagerecord.New(params); err != nil {
		return fmt.Errorf("stripe: failed to set usage: %w", err)
	}
	return nil
}

// isNotFound reports whether a Stripe error is a missing-resource error.
func isNotFound(err error) bool {
	if stripeErr, ok := err.(*stripe.Error); ok {
		return stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

// unixTime converts a provider epoch seconds field, zero meaning absent.
func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
