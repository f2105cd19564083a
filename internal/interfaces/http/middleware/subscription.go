package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/interfaces/http/dto"
)

// ReadOnlyKey marks requests from tenants in the read-only grace window
const ReadOnlyKey = "subscription_read_only"

// SubscriptionFetcher loads the subscription for a tenant. Satisfied by
// the subscription application service.
type SubscriptionFetcher interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.TenantSubscription, error)
}

// SubscriptionGate enforces the subscription state on tenant traffic:
// locked tenants are refused outright, read-only tenants may read but
// not write. Tenant-less requests and tenants without a subscription
// pass through untouched.
func SubscriptionGate(subscriptions SubscriptionFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := GetTenant(c)
		if tenant == nil {
			c.Next()
			return
		}

		sub, err := subscriptions.GetByTenant(c.Request.Context(), tenant.ID)
		if err != nil || sub == nil {
			c.Next()
			return
		}

		if sub.IsLocked() {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, dto.NewErrorResponse(
				dto.ErrCodeSubscriptionLocked,
				"Subscription is locked; payment is required to restore access",
			))
			return
		}

		if sub.IsReadOnly() {
			c.Set(ReadOnlyKey, true)
			if isWriteMethod(c.Request.Method) {
				c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
					dto.ErrCodeReadOnly,
					"Subscription is in the read-only grace period; writes are disabled",
				))
				return
			}
		}

		c.Next()
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// IsReadOnly reports whether the current request belongs to a tenant in
// the read-only grace window
func IsReadOnly(c *gin.Context) bool {
	return c.GetBool(ReadOnlyKey)
}
