package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// WebhookConfig contains configuration for webhook verification.
type WebhookConfig struct {
	// WebhookSecret verifies inbound payload signatures.
	WebhookSecret string
}

// StripeWebhookService verifies and dispatches Stripe webhook events to
// the provisioning and subscription lifecycle services.
type StripeWebhookService struct {
	config        WebhookConfig
	provisioning  *ProvisioningService
	subscriptions *SubscriptionService
	logger        *zap.Logger
}

// NewStripeWebhookService creates a webhook service.
func NewStripeWebhookService(
	config WebhookConfig,
	provisioning *ProvisioningService,
	subscriptions *SubscriptionService,
	logger *zap.Logger,
) *StripeWebhookService {
	return &StripeWebhookService{
		config:        config,
		provisioning:  provisioning,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies the payload signature and applies the event.
// Unhandled event types are acknowledged so the provider stops retrying.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		err = s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		err = s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	return result, nil
}

func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	_, err := s.provisioning.ProvisionFromCheckout(ctx, ProvisioningInput{
		SessionID:      session.ID,
		SubscriptionID: subscriptionID,
	})
	return err
}

func (s *StripeWebhookService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	return s.subscriptions.HandleSubscriptionUpdated(ctx, SubscriptionUpdateInput{
		SubscriptionID:   subscription.ID,
		ProviderStatus:   string(subscription.Status),
		CurrentPeriodEnd: unixTime(subscription.CurrentPeriodEnd),
		TrialEnd:         unixTime(subscription.TrialEnd),
	})
}

func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return s.subscriptions.HandleSubscriptionDeleted(ctx, subscription.ID)
}

func (s *StripeWebhookService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	subscriptionID := ""
	if invoice.Subscription != nil {
		subscriptionID = invoice.Subscription.ID
	}
	if subscriptionID == "" {
		s.logger.Debug("Payment failure without subscription reference ignored",
			zap.String("invoice_id", invoice.ID))
		return nil
	}
	return s.subscriptions.HandlePaymentFailed(ctx, subscriptionID)
}

// unixTime converts a provider epoch seconds field, zero meaning absent.
func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
