package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nexora/backend/internal/infrastructure/logger"
	"github.com/nexora/backend/internal/interfaces/http/handler"
	"github.com/nexora/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config collects the handlers and middleware dependencies of the HTTP
// surface.
type Config struct {
	Logger *zap.Logger

	TenantResolution middleware.TenantResolutionConfig
	Subscriptions    middleware.SubscriptionFetcher

	Health   *handler.HealthHandler
	Webhook  *handler.StripeWebhookHandler
	Tenant   *handler.TenantHandler
	Catalog  *handler.CatalogHandler
	Checkout *handler.CheckoutHandler
}

// Setup builds the gin engine with the full middleware pipeline and all
// routes. Resolution runs on everything except probes and webhooks; the
// subscription gate runs only on tenant-scoped routes.
func Setup(cfg Config) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))

	engine.GET("/health", cfg.Health.Health)
	engine.GET("/ready", cfg.Health.Ready)

	// Stripe authenticates with its own signature; tenant resolution
	// never applies here.
	engine.POST("/webhooks/stripe", cfg.Webhook.HandleStripeWebhook)

	resolution := cfg.TenantResolution
	if len(resolution.SkipPaths) == 0 {
		resolution.SkipPaths = []string{"/health", "/ready", "/webhooks"}
	}

	api := engine.Group("/api/v1")
	api.Use(middleware.TenantResolution(resolution))

	// Public routes: served with or without a resolved tenant.
	api.GET("/modules", cfg.Catalog.ListModules)
	api.POST("/checkout", cfg.Checkout.BeginCheckout)

	// Admin catalog mutations.
	admin := api.Group("/admin")
	admin.POST("/modules", cfg.Catalog.CreateModule)
	admin.PUT("/modules/:id", cfg.Catalog.UpdateModule)
	admin.PATCH("/modules/:id/active", cfg.Catalog.SetModuleActive)

	// Tenant-scoped routes: gated on subscription state.
	tenant := api.Group("/tenant")
	tenant.Use(middleware.SubscriptionGate(cfg.Subscriptions))
	tenant.GET("", cfg.Tenant.GetCurrentTenant)
	tenant.GET("/subscription", cfg.Tenant.GetSubscription)
	tenant.GET("/usage", cfg.Tenant.GetUsageSummary)
	tenant.POST("/usage", cfg.Tenant.RecordUsage)
	tenant.POST("/members", cfg.Tenant.AddMember)
	tenant.DELETE("/members/:userID", cfg.Tenant.RemoveMember)
	tenant.PUT("/members/:userID/role", cfg.Tenant.ChangeMemberRole)

	return engine
}
