package billing

import (
	"context"
	"fmt"

	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Deterministic provider product identifiers. Keying by ID instead of a
// search query sidesteps the provider's eventually consistent search.
const (
	productIDPrefix = "nexora_module_"
	seatProductID   = "nexora_seat"
	usageProductID  = "nexora_usage"

	usageMeterEventName = "nexora_usage_overage"
)

// Billing intervals as the provider spells them.
const (
	intervalMonth = "month"
	intervalYear  = "year"
)

// CatalogSyncConfig contains the platform-wide pricing knobs for the seat
// and usage overage products.
type CatalogSyncConfig struct {
	// SeatIncludedUnits is the free tier ceiling for seats.
	SeatIncludedUnits int64

	// SeatMonthlyCents and SeatAnnualCents price each seat above the
	// free tier.
	SeatMonthlyCents int64
	SeatAnnualCents  int64

	// UsageIncludedUnits is the free tier ceiling for usage events.
	UsageIncludedUnits int64

	// UsageOverageCents prices each usage event above the free tier.
	UsageOverageCents int64
}

// CatalogSyncService converges the provider's product and price graph onto
// the local catalog. Scheduled runs, administrative runs, and catalog
// change notifications all reach the same provider state; repeated runs
// never duplicate provider resources. Every operation short-circuits when
// billing credentials are not configured.
type CatalogSyncService struct {
	moduleRepo  billing.ModuleRepository
	settingRepo billing.AppSettingRepository
	gateway     StripeGateway
	config      CatalogSyncConfig
	logger      *zap.Logger
}

// NewCatalogSyncService creates a catalog sync service.
func NewCatalogSyncService(
	moduleRepo billing.ModuleRepository,
	settingRepo billing.AppSettingRepository,
	gateway StripeGateway,
	config CatalogSyncConfig,
	logger *zap.Logger,
) *CatalogSyncService {
	return &CatalogSyncService{
		moduleRepo:  moduleRepo,
		settingRepo: settingRepo,
		gateway:     gateway,
		config:      config,
		logger:      logger,
	}
}

// SyncAll converges every active module plus the seat and usage overage
// products.
func (s *CatalogSyncService) SyncAll(ctx context.Context) error {
	if !s.configured() {
		return nil
	}

	modules, err := s.moduleRepo.FindActive(ctx)
	if err != nil {
		return err
	}
	for _, module := range modules {
		if err := s.SyncModule(ctx, module); err != nil {
			return fmt.Errorf("sync module %s: %w", module.Slug, err)
		}
	}

	if err := s.SyncSeatPrices(ctx); err != nil {
		return fmt.Errorf("sync seat prices: %w", err)
	}
	if err := s.SyncUsagePrice(ctx); err != nil {
		return fmt.Errorf("sync usage price: %w", err)
	}
	return nil
}

// SyncModule converges one module's product and its monthly and annual
// licensed prices, persisting any new price IDs back onto the module.
func (s *CatalogSyncService) SyncModule(ctx context.Context, module *billing.Module) error {
	if !s.configured() {
		return nil
	}

	productID := productIDPrefix + module.Slug
	if err := s.gateway.EnsureProduct(ctx, productID, module.Name, module.Description); err != nil {
		return err
	}

	monthlyID, err := s.ensureLicensedPrice(ctx, productID, module.StripeMonthlyPriceID, module.MonthlyPriceCents, intervalMonth, module.Name+" (monthly)")
	if err != nil {
		return err
	}
	annualID, err := s.ensureLicensedPrice(ctx, productID, module.StripeAnnualPriceID, module.AnnualPriceCents, intervalYear, module.Name+" (annual)")
	if err != nil {
		return err
	}

	monthlyChanged := s.assignPriceID(&module.StripeMonthlyPriceID, monthlyID)
	annualChanged := s.assignPriceID(&module.StripeAnnualPriceID, annualID)
	if monthlyChanged || annualChanged {
		if err := s.moduleRepo.Save(ctx, module); err != nil {
			return err
		}
	}

	s.logger.Debug("Module catalog synced",
		zap.String("module_slug", module.Slug),
		zap.String("product_id", productID))
	return nil
}

// SyncSeatPrices converges the seat overage product and its graduated
// tiered prices for both intervals. Price IDs live in the settings store
// because they belong to the platform, not to any one module.
func (s *CatalogSyncService) SyncSeatPrices(ctx context.Context) error {
	if !s.configured() {
		return nil
	}

	if err := s.gateway.EnsureProduct(ctx, seatProductID, "Seats", "Per-seat licensing above the included allowance"); err != nil {
		return err
	}

	if err := s.ensureTieredSetting(ctx, billing.SettingSeatMonthlyPriceID, TieredPriceInput{
		ProductID:          seatProductID,
		FreeUnits:          s.config.SeatIncludedUnits,
		OverageAmountCents: s.config.SeatMonthlyCents,
		Interval:           intervalMonth,
		Nickname:           "Seats (monthly)",
	}); err != nil {
		return err
	}

	return s.ensureTieredSetting(ctx, billing.SettingSeatAnnualPriceID, TieredPriceInput{
		ProductID:          seatProductID,
		FreeUnits:          s.config.SeatIncludedUnits,
		OverageAmountCents: s.config.SeatAnnualCents,
		Interval:           intervalYear,
		Nickname:           "Seats (annual)",
	})
}

// SyncUsagePrice converges the usage overage product, its aggregation
// meter, and its graduated tiered price. The meter is created at most once
// and its ID cached indefinitely.
func (s *CatalogSyncService) SyncUsagePrice(ctx context.Context) error {
	if !s.configured() {
		return nil
	}

	if err := s.gateway.EnsureProduct(ctx, usageProductID, "Usage", "Metered usage above the included allowance"); err != nil {
		return err
	}

	meterID, err := s.ensureMeter(ctx)
	if err != nil {
		return err
	}

	return s.ensureTieredSetting(ctx, billing.SettingUsagePriceID, TieredPriceInput{
		ProductID:          usageProductID,
		FreeUnits:          s.config.UsageIncludedUnits,
		OverageAmountCents: s.config.UsageOverageCents,
		Interval:           intervalMonth,
		MeterID:            meterID,
		Nickname:           "Usage (metered)",
	})
}

// ensureLicensedPrice reuses the stored price when its amount still
// matches; otherwise it archives the old price and creates a replacement.
// Provider prices are immutable once created.
func (s *CatalogSyncService) ensureLicensedPrice(ctx context.Context, productID string, stored *string, amountCents int64, interval, nickname string) (string, error) {
	if stored != nil && *stored != "" {
		price, err := s.gateway.GetPrice(ctx, *stored)
		if err != nil {
			// A transient lookup failure must not archive or replace
			// anything; the next sync run converges from a known state.
			return "", err
		}
		if price != nil && price.Active {
			if price.UnitAmountCents == amountCents {
				return price.ID, nil
			}
			if err := s.gateway.DeactivatePrice(ctx, price.ID); err != nil {
				return "", err
			}
			s.logger.Info("Archived stale module price",
				zap.String("product_id", productID),
				zap.String("price_id", price.ID))
		}
	}

	return s.gateway.CreateLicensedPrice(ctx, LicensedPriceInput{
		ProductID:       productID,
		UnitAmountCents: amountCents,
		Interval:        interval,
		Nickname:        nickname,
	})
}

// ensureTieredSetting converges one tiered price whose ID is cached under
// a settings key. The stored price is reused only when both tiers still
// match the configured threshold and overage amount exactly.
func (s *CatalogSyncService) ensureTieredSetting(ctx context.Context, settingKey string, input TieredPriceInput) error {
	stored, err := s.settingRepo.Get(ctx, settingKey)
	if err != nil && err != shared.ErrNotFound {
		return err
	}

	if stored != "" {
		price, err := s.gateway.GetPrice(ctx, stored)
		if err != nil {
			return err
		}
		if price != nil && price.Active {
			if s.tiersMatch(price, input) {
				return nil
			}
			if err := s.gateway.DeactivatePrice(ctx, price.ID); err != nil {
				return err
			}
			s.logger.Info("Archived stale tiered price",
				zap.String("setting_key", settingKey),
				zap.String("price_id", price.ID))
		}
	}

	priceID, err := s.gateway.CreateTieredPrice(ctx, input)
	if err != nil {
		return err
	}
	return s.settingRepo.Set(ctx, settingKey, priceID)
}

// ensureMeter returns the cached meter ID, finding or creating the meter
// on first use.
func (s *CatalogSyncService) ensureMeter(ctx context.Context) (string, error) {
	stored, err := s.settingRepo.Get(ctx, billing.SettingUsageMeterID)
	if err != nil && err != shared.ErrNotFound {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	meterID, err := s.gateway.FindMeterByEventName(ctx, usageMeterEventName)
	if err != nil {
		return "", err
	}
	if meterID == "" {
		meterID, err = s.gateway.CreateMeter(ctx, usageMeterEventName, "Usage overage")
		if err != nil {
			return "", err
		}
		s.logger.Info("Created usage meter", zap.String("meter_id", meterID))
	}

	if err := s.settingRepo.Set(ctx, billing.SettingUsageMeterID, meterID); err != nil {
		return "", err
	}
	return meterID, nil
}

// tiersMatch reports whether a provider price carries exactly the two
// graduated tiers the configuration asks for: free through FreeUnits, then
// unbounded at the overage amount.
func (s *CatalogSyncService) tiersMatch(price *ProviderPrice, input TieredPriceInput) bool {
	if len(price.Tiers) != 2 {
		return false
	}
	first, second := price.Tiers[0], price.Tiers[1]
	return first.UpTo == input.FreeUnits &&
		first.UnitAmountCents == 0 &&
		second.UpTo == 0 &&
		second.UnitAmountCents == input.OverageAmountCents &&
		price.Interval == input.Interval
}

func (s *CatalogSyncService) assignPriceID(target **string, id string) bool {
	if *target != nil && **target == id {
		return false
	}
	*target = &id
	return true
}

func (s *CatalogSyncService) configured() bool {
	return s.gateway != nil && s.gateway.IsConfigured()
}
