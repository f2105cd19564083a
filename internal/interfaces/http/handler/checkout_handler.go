package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/nexora/backend/internal/application/billing"
	"github.com/nexora/backend/internal/domain/billing"
)

// CheckoutHandler opens provider checkout sessions ahead of
// provider-confirmed provisioning
type CheckoutHandler struct {
	BaseHandler
	checkout *billingapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout *billingapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// BeginCheckoutRequest is the payload for starting a checkout
type BeginCheckoutRequest struct {
	Email           string   `json:"email" binding:"required,email"`
	ModuleSlugs     []string `json:"module_slugs" binding:"required,min=1"`
	SeatLimit       int      `json:"seat_limit" binding:"min=0"`
	UsageQuota      int64    `json:"usage_quota" binding:"min=0"`
	BillingInterval string   `json:"billing_interval" binding:"required,oneof=monthly annual"`
}

// BeginCheckout opens the provider session and stores the purchase intent
func (h *CheckoutHandler) BeginCheckout(c *gin.Context) {
	var req BeginCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.checkout.BeginCheckout(c.Request.Context(), billingapp.CheckoutInput{
		Email:           req.Email,
		ModuleSlugs:     req.ModuleSlugs,
		SeatLimit:       req.SeatLimit,
		UsageQuota:      req.UsageQuota,
		BillingInterval: billing.BillingInterval(req.BillingInterval),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"session_id":   result.Session.SessionID,
		"checkout_url": result.RedirectURL,
		"expires_at":   result.Session.ExpiresAt,
	})
}
