package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	appTenancy "github.com/nexora/backend/internal/application/tenancy"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/nexora/backend/internal/infrastructure/logger"
	"github.com/nexora/backend/internal/interfaces/http/dto"
)

// Gin context keys set by the tenant resolution middleware.
const (
	TenantKey         = "tenant"
	TenantStrategyKey = "tenant_strategy"
)

// TenantResolutionConfig holds configuration for the tenant middleware
type TenantResolutionConfig struct {
	// Resolver performs the actual resolution
	Resolver *appTenancy.Resolver
	// SkipPaths are paths served without attempting resolution
	SkipPaths []string
}

// TenantResolution resolves the tenant for each request and binds it to
// the request context for the rest of the pipeline. Requests without any
// tenant signal proceed tenant-less; requests with a signal that fails
// verification are rejected with the mapped status. The tenancy context
// is cleared when the request finishes, on every path.
func TenantResolution(cfg TenantResolutionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		result, err := cfg.Resolver.Resolve(c.Request.Context(), appTenancy.ResolveInput{
			Host:            c.Request.Host,
			TenantIDHeader:  c.GetHeader(appTenancy.HeaderTenantID),
			SignatureHeader: c.GetHeader(appTenancy.HeaderSignature),
		})
		if err != nil {
			abortResolution(c, err)
			return
		}
		if result == nil {
			c.Next()
			return
		}

		tc := tenancy.NewContext()
		tc.Set(result.Tenant)
		defer tc.Clear()

		ctx := tenancy.WithContext(c.Request.Context(), tc)
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithTenantID(ctx, log, result.Tenant.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Set(TenantKey, result.Tenant)
		c.Set(TenantStrategyKey, result.Strategy)

		c.Next()
	}
}

// abortResolution maps resolution errors onto HTTP statuses
func abortResolution(c *gin.Context, err error) {
	code := dto.ErrCodeInternal
	message := "Tenant resolution failed"

	switch err {
	case shared.ErrTenantNotFound:
		code = dto.ErrCodeTenantNotFound
		message = "Tenant not found"
	case shared.ErrTenantInactive:
		code = dto.ErrCodeTenantInactive
		message = "Tenant is inactive"
	case shared.ErrInvalidTenantSignature:
		code = dto.ErrCodeInvalidTenantSignature
		message = "Tenant signature verification failed"
	}

	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message))
}

// GetTenant retrieves the resolved tenant from gin context, or nil for
// tenant-less requests
func GetTenant(c *gin.Context) *tenancy.Tenant {
	if v, exists := c.Get(TenantKey); exists {
		if t, ok := v.(*tenancy.Tenant); ok {
			return t
		}
	}
	return nil
}
