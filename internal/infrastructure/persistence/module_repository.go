package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ModuleModel is the GORM model for catalog modules
type ModuleModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                 string    `gorm:"type:varchar(255);not null"`
	Slug                 string    `gorm:"type:varchar(63);uniqueIndex;not null"`
	Description          string    `gorm:"type:text"`
	MonthlyPriceCents    int64     `gorm:"not null;default:0"`
	AnnualPriceCents     int64     `gorm:"not null;default:0"`
	StripeMonthlyPriceID *string   `gorm:"type:varchar(255)"`
	StripeAnnualPriceID  *string   `gorm:"type:varchar(255)"`
	Active               bool      `gorm:"not null;default:true"`
	SortOrder            int       `gorm:"not null;default:0"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ModuleModel) TableName() string {
	return "modules"
}

// ToEntity converts the model to a domain entity
func (m *ModuleModel) ToEntity() *billing.Module {
	return &billing.Module{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:                 m.Name,
		Slug:                 m.Slug,
		Description:          m.Description,
		MonthlyPriceCents:    m.MonthlyPriceCents,
		AnnualPriceCents:     m.AnnualPriceCents,
		StripeMonthlyPriceID: m.StripeMonthlyPriceID,
		StripeAnnualPriceID:  m.StripeAnnualPriceID,
		Active:               m.Active,
		SortOrder:            m.SortOrder,
	}
}

// ModuleModelFromEntity creates a model from a domain entity
func ModuleModelFromEntity(e *billing.Module) *ModuleModel {
	return &ModuleModel{
		ID:                   e.ID,
		Name:                 e.Name,
		Slug:                 e.Slug,
		Description:          e.Description,
		MonthlyPriceCents:    e.MonthlyPriceCents,
		AnnualPriceCents:     e.AnnualPriceCents,
		StripeMonthlyPriceID: e.StripeMonthlyPriceID,
		StripeAnnualPriceID:  e.StripeAnnualPriceID,
		Active:               e.Active,
		SortOrder:            e.SortOrder,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// ModuleRepository implements billing.ModuleRepository on GORM
type ModuleRepository struct {
	db *gorm.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// FindByID retrieves a module by ID
func (r *ModuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Module, error) {
	var model ModuleModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindBySlug retrieves a module by its unique slug
func (r *ModuleRepository) FindBySlug(ctx context.Context, slug string) (*billing.Module, error) {
	var model ModuleModel
	if err := dbFromContext(ctx, r.db).First(&model, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindActive retrieves all active modules in display order
func (r *ModuleRepository) FindActive(ctx context.Context) ([]*billing.Module, error) {
	return r.findWhere(ctx, "active = ?", true)
}

// FindAll retrieves every module in display order
func (r *ModuleRepository) FindAll(ctx context.Context) ([]*billing.Module, error) {
	return r.findWhere(ctx, "1 = 1")
}

// Save creates or updates a module
func (r *ModuleRepository) Save(ctx context.Context, module *billing.Module) error {
	model := ModuleModelFromEntity(module)
	return dbFromContext(ctx, r.db).Save(model).Error
}

func (r *ModuleRepository) findWhere(ctx context.Context, query string, args ...interface{}) ([]*billing.Module, error) {
	var models []ModuleModel
	err := dbFromContext(ctx, r.db).
		Where(query, args...).
		Order("sort_order ASC, name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	modules := make([]*billing.Module, len(models))
	for i := range models {
		modules[i] = models[i].ToEntity()
	}
	return modules, nil
}
