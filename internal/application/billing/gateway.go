package billing

import (
	"context"
	"time"
)

// ProviderSubscriptionItem is one line item on a provider subscription.
type ProviderSubscriptionItem struct {
	ID      string
	PriceID string
}

// ProviderSubscription is the provider-side view of a subscription.
type ProviderSubscription struct {
	ID               string
	CustomerID       string
	Status           string
	CurrentPeriodEnd *time.Time
	TrialEnd         *time.Time
	Items            []ProviderSubscriptionItem
}

// CheckoutLineItem is one priced line on a hosted checkout.
type CheckoutLineItem struct {
	PriceID  string
	Quantity int64
}

// CheckoutSessionInput describes a hosted subscription checkout. Metadata
// is attached to the subscription the checkout produces.
type CheckoutSessionInput struct {
	Email      string
	LineItems  []CheckoutLineItem
	TrialDays  int64
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// ProviderCheckoutSession is the provider-issued checkout handle. The
// session ID keys the local purchase intent until the provider confirms
// payment; the URL is where the buyer completes it.
type ProviderCheckoutSession struct {
	ID  string
	URL string
}

// PriceTier is one graduated tier on a metered price. UpTo of zero marks
// the unbounded final tier.
type PriceTier struct {
	UpTo            int64
	UnitAmountCents int64
}

// ProviderPrice is the provider-side view of a price, with tiers expanded
// when the price is tiered.
type ProviderPrice struct {
	ID              string
	Active          bool
	UnitAmountCents int64
	Interval        string
	Tiers           []PriceTier
}

// LicensedPriceInput creates a flat per-unit recurring price.
type LicensedPriceInput struct {
	ProductID       string
	UnitAmountCents int64
	Interval        string
	Nickname        string
}

// TieredPriceInput creates a graduated tiered metered recurring price:
// tier one covers zero through FreeUnits at no cost, tier two is unbounded
// at OverageAmountCents per unit.
type TieredPriceInput struct {
	ProductID          string
	FreeUnits          int64
	OverageAmountCents int64
	Interval           string
	MeterID            string
	Nickname           string
}

// StripeGateway is the outbound port to the external billing provider. A
// nil-safe no-op implementation backs deployments without billing
// credentials; IsConfigured lets callers short-circuit entire operations.
type StripeGateway interface {
	IsConfigured() bool

	// CreateCustomer registers a billing customer and returns its ID.
	CreateCustomer(ctx context.Context, name, email string) (string, error)

	// CreateCheckoutSession opens a hosted subscription checkout and
	// returns the provider-issued session.
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*ProviderCheckoutSession, error)

	// GetSubscription fetches a provider subscription with its line items.
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)

	// EnsureProduct find-or-creates a product under a caller-chosen
	// deterministic ID and refreshes its name when it drifts.
	EnsureProduct(ctx context.Context, productID, name, description string) error

	// GetPrice retrieves a price with tiers expanded. A price the provider
	// no longer knows returns nil with no error; any other failure
	// surfaces.
	GetPrice(ctx context.Context, priceID string) (*ProviderPrice, error)

	// CreateLicensedPrice creates a flat recurring price and returns its ID.
	CreateLicensedPrice(ctx context.Context, input LicensedPriceInput) (string, error)

	// CreateTieredPrice creates a graduated tiered metered price and
	// returns its ID.
	CreateTieredPrice(ctx context.Context, input TieredPriceInput) (string, error)

	// DeactivatePrice archives a price. Prices are immutable, so amount
	// changes always archive-and-recreate.
	DeactivatePrice(ctx context.Context, priceID string) error

	// FindMeterByEventName returns the ID of an active meter with the
	// given event name, or empty string when none exists.
	FindMeterByEventName(ctx context.Context, eventName string) (string, error)

	// CreateMeter creates a usage aggregation meter and returns its ID.
	CreateMeter(ctx context.Context, eventName, displayName string) (string, error)

	// FindSubscriptionItemByPrice returns the subscription item carrying
	// the given price, or empty string when the subscription has none.
	FindSubscriptionItemByPrice(ctx context.Context, subscriptionID, priceID string) (string, error)

	// SetUsage reports an absolute usage total for the current period on a
	// subscription item. Setting the same total twice is harmless.
	SetUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error
}
