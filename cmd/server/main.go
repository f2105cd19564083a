package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/nexora/backend/internal/application/billing"
	tenancyapp "github.com/nexora/backend/internal/application/tenancy"
	billinginfra "github.com/nexora/backend/internal/infrastructure/billing"
	"github.com/nexora/backend/internal/infrastructure/cache"
	"github.com/nexora/backend/internal/infrastructure/config"
	"github.com/nexora/backend/internal/infrastructure/event"
	"github.com/nexora/backend/internal/infrastructure/logger"
	"github.com/nexora/backend/internal/infrastructure/persistence"
	"github.com/nexora/backend/internal/infrastructure/scheduler"
	"github.com/nexora/backend/internal/interfaces/http/handler"
	"github.com/nexora/backend/internal/interfaces/http/middleware"
	"github.com/nexora/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Nexora Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithGormLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	tenantRepo := persistence.NewTenantRepository(db.DB)
	userRepo := persistence.NewUserRepository(db.DB)
	roleRepo := persistence.NewRoleRepository(db.DB)
	membershipRepo := persistence.NewMembershipRepository(db.DB)
	subscriptionRepo := persistence.NewSubscriptionRepository(db.DB)
	usageRepo := persistence.NewUsageRecordRepository(db.DB)
	seatRepo := persistence.NewSeatSnapshotRepository(db.DB)
	checkoutRepo := persistence.NewCheckoutSessionRepository(db.DB)
	moduleRepo := persistence.NewModuleRepository(db.DB)
	settingRepo := persistence.NewAppSettingRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	if err := persistence.EnsureDefaultRoles(context.Background(), roleRepo); err != nil {
		log.Fatal("Failed to seed default roles", zap.Error(err))
	}

	// Tenant resolution cache: Redis when enabled, in-memory otherwise
	tenantCache := cache.NewTenantCache(cfg.Redis, cfg.Tenancy.CacheTTL, log)

	// Stripe gateway
	stripeConfig := &billinginfra.StripeConfig{
		SecretKey:     cfg.Billing.StripeSecretKey,
		WebhookSecret: cfg.Billing.StripeWebhookSecret,
		Currency:      "usd",
	}
	gateway, err := billinginfra.NewStripeGateway(stripeConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
	}
	if !gateway.IsConfigured() {
		log.Warn("Stripe is not configured; billing synchronization is disabled")
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	provisionedNotifier := tenancyapp.NewProvisionedNotifier(nil, "https", cfg.Tenancy.BaseDomain, log)
	eventBus.Subscribe(provisionedNotifier)

	// Application services
	resolver := tenancyapp.NewResolver(tenantRepo, tenantCache, tenancyapp.ResolverConfig{
		BaseDomain:   cfg.Tenancy.BaseDomain,
		SharedSecret: cfg.Tenancy.HeaderSecret,
	}, log)

	membershipService := tenancyapp.NewMembershipService(
		membershipRepo, userRepo, roleRepo, seatRepo, txManager, log,
	)

	usageReporter := billingapp.NewUsageReporter(gateway, subscriptionRepo, log)
	meteringService := billingapp.NewMeteringService(
		subscriptionRepo, usageRepo, seatRepo, membershipRepo, usageReporter, log,
	)

	subscriptionService := billingapp.NewSubscriptionService(
		subscriptionRepo, meteringService,
		billingapp.SubscriptionConfig{ReadOnlyGraceDays: cfg.Billing.ReadOnlyGraceDays},
		log,
	)

	catalogSyncService := billingapp.NewCatalogSyncService(
		moduleRepo, settingRepo, gateway,
		billingapp.CatalogSyncConfig{
			SeatIncludedUnits:  cfg.Billing.SeatIncludedUnits,
			SeatMonthlyCents:   cfg.Billing.SeatMonthlyCents,
			SeatAnnualCents:    cfg.Billing.SeatAnnualCents,
			UsageIncludedUnits: cfg.Billing.UsageIncludedUnits,
			UsageOverageCents:  cfg.Billing.UsageOverageCents,
		},
		log,
	)

	catalogService := billingapp.NewCatalogService(moduleRepo, catalogSyncService, log)
	checkoutService := billingapp.NewCheckoutService(
		checkoutRepo, moduleRepo, settingRepo, gateway,
		billingapp.CheckoutConfig{
			TrialDays:  cfg.Billing.TrialDays,
			SuccessURL: cfg.Billing.CheckoutSuccessURL,
			CancelURL:  cfg.Billing.CheckoutCancelURL,
		},
		log,
	)

	provisioningService := billingapp.NewProvisioningService(billingapp.ProvisioningServiceConfig{
		CheckoutRepo:     checkoutRepo,
		UserRepo:         userRepo,
		TenantRepo:       tenantRepo,
		RoleRepo:         roleRepo,
		MembershipRepo:   membershipRepo,
		SubscriptionRepo: subscriptionRepo,
		SeatRepo:         seatRepo,
		Gateway:          gateway,
		EventBus:         eventBus,
		TxManager:        txManager,
		Logger:           log,
	})

	webhookService := billingapp.NewStripeWebhookService(
		billingapp.WebhookConfig{WebhookSecret: cfg.Billing.StripeWebhookSecret},
		provisioningService, subscriptionService, log,
	)

	// Background lifecycle scheduler
	lifecycleScheduler := scheduler.NewLifecycleScheduler(
		subscriptionService, catalogSyncService, log,
		scheduler.LifecycleSchedulerConfig{
			Enabled:             cfg.Scheduler.Enabled,
			SweepInterval:       cfg.Scheduler.SweepInterval,
			CatalogSyncInterval: cfg.Scheduler.CatalogSyncInterval,
			RunTimeout:          10 * time.Minute,
		},
	)
	if err := lifecycleScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start lifecycle scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := lifecycleScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping lifecycle scheduler", zap.Error(err))
		}
	}()

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Setup(router.Config{
		Logger: log,
		TenantResolution: middleware.TenantResolutionConfig{
			Resolver: resolver,
		},
		Subscriptions: subscriptionService,
		Health:        handler.NewHealthHandler(db),
		Webhook:       handler.NewStripeWebhookHandler(webhookService),
		Tenant:        handler.NewTenantHandler(subscriptionService, meteringService, membershipService),
		Catalog:       handler.NewCatalogHandler(catalogService),
		Checkout:      handler.NewCheckoutHandler(checkoutService),
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
