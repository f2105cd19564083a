package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/nexora/backend/internal/application/billing"
)

// Stripe webhook payloads are small; cap reads to keep a hostile caller
// from streaming an unbounded body.
const maxWebhookPayloadSize = 65536

// StripeWebhookHandler handles Stripe webhook endpoints. These are called
// by Stripe and authenticate via the Stripe-Signature header, not tenant
// resolution.
type StripeWebhookHandler struct {
	BaseHandler
	webhookService *billingapp.StripeWebhookService
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhookService *billingapp.StripeWebhookService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhookResponse represents the response for a Stripe webhook call
type StripeWebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripeWebhook receives and processes webhook events from Stripe
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}

	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, StripeWebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, StripeWebhookResponse{
			Received: false,
			Message:  "Missing Stripe-Signature header",
		})
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		if result == nil {
			c.JSON(http.StatusUnauthorized, StripeWebhookResponse{
				Received: false,
				Message:  "Webhook signature verification failed",
			})
			return
		}

		// Processing errors still acknowledge the event; retrying the same
		// payload will not fix them and internal details stay internal.
		c.JSON(http.StatusOK, StripeWebhookResponse{
			Received:  true,
			EventID:   result.EventID,
			EventType: result.EventType,
			Message:   "Webhook received but processing encountered an issue",
		})
		return
	}

	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}
