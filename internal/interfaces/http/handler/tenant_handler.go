package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/nexora/backend/internal/application/billing"
	tenancyapp "github.com/nexora/backend/internal/application/tenancy"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/interfaces/http/middleware"
)

// TenantHandler serves the resolved tenant's own view: identity,
// subscription state, seats and usage.
type TenantHandler struct {
	BaseHandler
	subscriptions *billingapp.SubscriptionService
	metering      *billingapp.MeteringService
	memberships   *tenancyapp.MembershipService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(
	subscriptions *billingapp.SubscriptionService,
	metering *billingapp.MeteringService,
	memberships *tenancyapp.MembershipService,
) *TenantHandler {
	return &TenantHandler{
		subscriptions: subscriptions,
		metering:      metering,
		memberships:   memberships,
	}
}

// TenantResponse is the tenant's own identity view
type TenantResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Active bool      `json:"active"`
}

// SubscriptionResponse is the tenant's subscription state view
type SubscriptionResponse struct {
	Status           string     `json:"status"`
	BillingInterval  string     `json:"billing_interval"`
	ModuleSlugs      []string   `json:"module_slugs"`
	SeatLimit        int        `json:"seat_limit"`
	UsageQuota       int64      `json:"usage_quota"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	ReadOnlyEndsAt   *time.Time `json:"read_only_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	ReadOnly         bool       `json:"read_only"`
}

// UsageSummaryResponse reports the tenant's metering state for the
// current billing period
type UsageSummaryResponse struct {
	CurrentSeats   int64 `json:"current_seats"`
	PeakSeats      int64 `json:"peak_seats"`
	UsageThisCycle int64 `json:"usage_this_cycle"`
	UsageQuota     int64 `json:"usage_quota"`
	RemainingQuota int64 `json:"remaining_quota"`
	OverQuota      bool  `json:"over_quota"`
}

// GetCurrentTenant returns the resolved tenant
func (h *TenantHandler) GetCurrentTenant(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	h.Success(c, TenantResponse{
		ID:     tenant.ID,
		Name:   tenant.Name,
		Slug:   tenant.Slug,
		Active: tenant.Active,
	})
}

// GetSubscription returns the resolved tenant's subscription state
func (h *TenantHandler) GetSubscription(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	sub, err := h.subscriptions.GetByTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SubscriptionResponse{
		Status:           string(sub.Status),
		BillingInterval:  string(sub.BillingInterval),
		ModuleSlugs:      sub.ModuleSlugs,
		SeatLimit:        sub.SeatLimit,
		UsageQuota:       sub.UsageQuota,
		TrialEndsAt:      sub.TrialEndsAt,
		ReadOnlyEndsAt:   sub.ReadOnlyEndsAt,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		ReadOnly:         sub.IsReadOnly(),
	})
}

// GetUsageSummary returns seat and usage counters for the current period
func (h *TenantHandler) GetUsageSummary(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}
	ctx := c.Request.Context()

	sub, err := h.subscriptions.GetByTenant(ctx, tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	currentSeats, err := h.metering.CurrentSeatCount(ctx, tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	peakSeats, err := h.metering.PeakSeatCount(ctx, tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	used, err := h.metering.CurrentPeriodUsage(ctx, tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	remaining, err := h.metering.RemainingQuota(ctx, tenant.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UsageSummaryResponse{
		CurrentSeats:   currentSeats,
		PeakSeats:      peakSeats,
		UsageThisCycle: used,
		UsageQuota:     sub.UsageQuota,
		RemainingQuota: remaining,
		OverQuota:      remaining == 0 && used >= sub.UsageQuota,
	})
}

// RecordUsageRequest is the payload for recording a usage event
type RecordUsageRequest struct {
	UsageType string `json:"usage_type" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// RecordUsage appends a usage event to the tenant's ledger
func (h *TenantHandler) RecordUsage(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	record, err := h.metering.RecordUsage(c.Request.Context(), tenant.ID, billing.UsageType(req.UsageType), req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"id":         record.ID,
		"usage_type": record.UsageType,
		"quantity":   record.Quantity,
	})
}

// MembershipRequest identifies a user and role for membership mutations
type MembershipRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	RoleSlug string `json:"role_slug" binding:"required"`
}

// AddMember adds a user to the resolved tenant
func (h *TenantHandler) AddMember(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	userID := uuid.MustParse(req.UserID)

	membership, err := h.memberships.AddMember(c.Request.Context(), tenant.ID, userID, req.RoleSlug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"id":        membership.ID,
		"tenant_id": membership.TenantID,
		"user_id":   membership.UserID,
	})
}

// RemoveMember removes a user from the resolved tenant
func (h *TenantHandler) RemoveMember(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.memberships.RemoveMember(c.Request.Context(), tenant.ID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ChangeMemberRole changes a member's role within the resolved tenant
func (h *TenantHandler) ChangeMemberRole(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		h.NotFound(c, "No tenant resolved for this request")
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req struct {
		RoleSlug string `json:"role_slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.memberships.ChangeRole(c.Request.Context(), tenant.ID, userID, req.RoleSlug); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
