package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
)

type stubSubscriptionFetcher struct {
	sub *billing.TenantSubscription
	err error
}

func (s *stubSubscriptionFetcher) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.TenantSubscription, error) {
	return s.sub, s.err
}

func gateRouter(fetcher SubscriptionFetcher, tenant *tenancy.Tenant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if tenant != nil {
			c.Set(TenantKey, tenant)
		}
		c.Next()
	})
	router.Use(SubscriptionGate(fetcher))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"read_only": IsReadOnly(c)})
	}
	router.GET("/resource", handler)
	router.POST("/resource", handler)
	router.DELETE("/resource", handler)
	return router
}

func subscriptionInStatus(status billing.SubscriptionStatus) *billing.TenantSubscription {
	return &billing.TenantSubscription{Status: status}
}

func testGateTenant() *tenancy.Tenant {
	return &tenancy.Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "Acme Corp",
		Slug:       "acme",
		Active:     true,
	}
}

func TestSubscriptionGate_Locked(t *testing.T) {
	fetcher := &stubSubscriptionFetcher{sub: subscriptionInStatus(billing.StatusLocked)}
	router := gateRouter(fetcher, testGateTenant())

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(method, "/resource", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusPaymentRequired, w.Code)
			assert.Contains(t, w.Body.String(), "SUBSCRIPTION_LOCKED")
		})
	}
}

func TestSubscriptionGate_ReadOnly(t *testing.T) {
	fetcher := &stubSubscriptionFetcher{sub: subscriptionInStatus(billing.StatusReadOnly)}
	router := gateRouter(fetcher, testGateTenant())

	t.Run("writes are refused", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodDelete} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(method, "/resource", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "SUBSCRIPTION_READ_ONLY")
		}
	})

	t.Run("reads pass with the read-only flag set", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"read_only":true`)
	})
}

func TestSubscriptionGate_ActivePassesThrough(t *testing.T) {
	fetcher := &stubSubscriptionFetcher{sub: subscriptionInStatus(billing.StatusActive)}
	router := gateRouter(fetcher, testGateTenant())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/resource", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"read_only":false`)
}

func TestSubscriptionGate_NoTenant(t *testing.T) {
	fetcher := &stubSubscriptionFetcher{err: shared.ErrNotFound}
	router := gateRouter(fetcher, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/resource", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptionGate_NoSubscription(t *testing.T) {
	fetcher := &stubSubscriptionFetcher{err: shared.ErrNotFound}
	router := gateRouter(fetcher, testGateTenant())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/resource", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
