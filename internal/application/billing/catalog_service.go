package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CatalogSyncer converges a single module's provider resources. Satisfied
// by CatalogSyncService.
type CatalogSyncer interface {
	SyncModule(ctx context.Context, module *billing.Module) error
}

// ModuleInput carries the editable fields of a catalog module.
type ModuleInput struct {
	Name              string
	Slug              string
	Description       string
	MonthlyPriceCents int64
	AnnualPriceCents  int64
	SortOrder         int
}

// CatalogService manages the sellable module catalog. Edits that touch
// billing-relevant fields trigger a provider sync for the affected module;
// reordering and activation changes do not.
type CatalogService struct {
	moduleRepo billing.ModuleRepository
	syncer     CatalogSyncer
	logger     *zap.Logger
}

// NewCatalogService creates a catalog service. The syncer may be nil when
// billing is not wired up.
func NewCatalogService(moduleRepo billing.ModuleRepository, syncer CatalogSyncer, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		moduleRepo: moduleRepo,
		syncer:     syncer,
		logger:     logger,
	}
}

// CreateModule adds a module to the catalog and syncs it.
func (s *CatalogService) CreateModule(ctx context.Context, input ModuleInput) (*billing.Module, error) {
	if existing, err := s.moduleRepo.FindBySlug(ctx, input.Slug); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	module, err := billing.NewModule(input.Name, input.Slug, input.Description, input.MonthlyPriceCents, input.AnnualPriceCents)
	if err != nil {
		return nil, err
	}
	module.SortOrder = input.SortOrder

	if err := s.moduleRepo.Save(ctx, module); err != nil {
		return nil, err
	}

	s.logger.Info("Catalog module created",
		zap.String("module_slug", module.Slug))

	s.syncModule(ctx, module)
	return module, nil
}

// UpdateModule edits a module. The slug is immutable once assigned.
func (s *CatalogService) UpdateModule(ctx context.Context, id uuid.UUID, input ModuleInput) (*billing.Module, error) {
	module, err := s.moduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	needsSync := module.BillingFieldsChanged(input.Name, input.Description, input.MonthlyPriceCents, input.AnnualPriceCents)

	module.Name = input.Name
	module.Description = input.Description
	module.MonthlyPriceCents = input.MonthlyPriceCents
	module.AnnualPriceCents = input.AnnualPriceCents
	module.SortOrder = input.SortOrder

	if err := s.moduleRepo.Save(ctx, module); err != nil {
		return nil, err
	}

	if needsSync {
		s.syncModule(ctx, module)
	}
	return module, nil
}

// SetModuleActive toggles a module's availability without touching the
// provider catalog.
func (s *CatalogService) SetModuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	module, err := s.moduleRepo.FindByID(ctx, id)
	if err != nil {
		return shared.ErrNotFound
	}
	module.Active = active
	return s.moduleRepo.Save(ctx, module)
}

// ListActiveModules returns the purchasable catalog.
func (s *CatalogService) ListActiveModules(ctx context.Context) ([]*billing.Module, error) {
	return s.moduleRepo.FindActive(ctx)
}

// syncModule runs a best-effort provider sync; failures are left to the
// next scheduled full sync, which converges to the same state.
func (s *CatalogService) syncModule(ctx context.Context, module *billing.Module) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.SyncModule(ctx, module); err != nil {
		s.logger.Warn("Module catalog sync failed, deferring to scheduled sync",
			zap.String("module_slug", module.Slug),
			zap.Error(err))
	}
}
