package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	billingapp "github.com/nexora/backend/internal/application/billing"
	billinginfra "github.com/nexora/backend/internal/infrastructure/billing"
	"github.com/nexora/backend/internal/infrastructure/config"
	"github.com/nexora/backend/internal/infrastructure/logger"
	"github.com/nexora/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// sweep is the cron entry point for the subscription lifecycle jobs:
// locking read-only tenants whose grace period lapsed and reconciling
// the Stripe catalog. Deployments without the in-process scheduler run
// this daily.
func main() {
	var (
		logLevel string
		timeout  time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Maximum run time")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	subscriptionRepo := persistence.NewSubscriptionRepository(db.DB)
	moduleRepo := persistence.NewModuleRepository(db.DB)
	settingRepo := persistence.NewAppSettingRepository(db.DB)

	gateway, err := billinginfra.NewStripeGateway(&billinginfra.StripeConfig{
		SecretKey:     cfg.Billing.StripeSecretKey,
		WebhookSecret: cfg.Billing.StripeWebhookSecret,
		Currency:      "usd",
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
	}

	subscriptionService := billingapp.NewSubscriptionService(
		subscriptionRepo, nil,
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

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "sweep":
		runSweep(ctx, subscriptionService, log)
	case "sync-catalog":
		runCatalogSync(ctx, catalogSyncService, log)
	case "all":
		runSweep(ctx, subscriptionService, log)
		runCatalogSync(ctx, catalogSyncService, log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runSweep(ctx context.Context, service *billingapp.SubscriptionService, log *zap.Logger) {
	start := time.Now()
	locked, err := service.SweepExpired(ctx, start)
	if err != nil {
		log.Fatal("Read-only expiry sweep failed", zap.Error(err))
	}
	log.Info("Read-only expiry sweep completed",
		zap.Int("locked", locked),
		zap.Duration("duration", time.Since(start)),
	)
}

func runCatalogSync(ctx context.Context, service *billingapp.CatalogSyncService, log *zap.Logger) {
	start := time.Now()
	if err := service.SyncAll(ctx); err != nil {
		log.Fatal("Catalog sync failed", zap.Error(err))
	}
	log.Info("Catalog sync completed", zap.Duration("duration", time.Since(start)))
}

func printUsage() {
	fmt.Println("Usage: sweep [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  sweep         Lock subscriptions whose read-only grace period lapsed")
	fmt.Println("  sync-catalog  Reconcile module, seat and usage prices with Stripe")
	fmt.Println("  all           Run both jobs")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
