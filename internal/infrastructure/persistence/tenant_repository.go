package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// TenantModel is the GORM model for tenants
type TenantModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"type:varchar(255);not null"`
	Slug             string    `gorm:"type:varchar(63);uniqueIndex;not null"`
	Active           bool      `gorm:"not null;default:false"`
	StripeCustomerID string    `gorm:"type:varchar(255);index"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (TenantModel) TableName() string {
	return "tenants"
}

// ToEntity converts the model to a domain entity
func (m *TenantModel) ToEntity() *tenancy.Tenant {
	return &tenancy.Tenant{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:             m.Name,
		Slug:             m.Slug,
		Active:           m.Active,
		StripeCustomerID: m.StripeCustomerID,
	}
}

// TenantModelFromEntity creates a model from a domain entity
func TenantModelFromEntity(e *tenancy.Tenant) *TenantModel {
	return &TenantModel{
		ID:               e.ID,
		Name:             e.Name,
		Slug:             e.Slug,
		Active:           e.Active,
		StripeCustomerID: e.StripeCustomerID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// TenantRepository implements tenancy.TenantRepository on GORM
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// FindByID retrieves a tenant by its ID
func (r *TenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	var model TenantModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindBySlug retrieves a tenant by its unique slug
func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	var model TenantModel
	if err := dbFromContext(ctx, r.db).First(&model, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByStripeCustomerID retrieves a tenant by its billing customer reference
func (r *TenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*tenancy.Tenant, error) {
	var model TenantModel
	if err := dbFromContext(ctx, r.db).First(&model, "stripe_customer_id = ?", customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// SlugExists reports whether a tenant with the given slug exists
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).Model(&TenantModel{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tenant
func (r *TenantRepository) Save(ctx context.Context, tenant *tenancy.Tenant) error {
	model := TenantModelFromEntity(tenant)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Delete removes a tenant
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&TenantModel{}, "id = ?", id).Error
}
