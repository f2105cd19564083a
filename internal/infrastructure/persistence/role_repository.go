package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// RoleModel is the GORM model for platform roles
type RoleModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Slug      string    `gorm:"type:varchar(63);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (RoleModel) TableName() string {
	return "roles"
}

// ToEntity converts the model to a domain entity
func (m *RoleModel) ToEntity() *tenancy.Role {
	return &tenancy.Role{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name: m.Name,
		Slug: m.Slug,
	}
}

// RoleModelFromEntity creates a model from a domain entity
func RoleModelFromEntity(e *tenancy.Role) *RoleModel {
	return &RoleModel{
		ID:        e.ID,
		Name:      e.Name,
		Slug:      e.Slug,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// RoleRepository implements tenancy.RoleRepository on GORM
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByID retrieves a role by ID
func (r *RoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Role, error) {
	var model RoleModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindBySlug retrieves a role by its unique slug
func (r *RoleRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Role, error) {
	var model RoleModel
	if err := dbFromContext(ctx, r.db).First(&model, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a role
func (r *RoleRepository) Save(ctx context.Context, role *tenancy.Role) error {
	model := RoleModelFromEntity(role)
	return dbFromContext(ctx, r.db).Save(model).Error
}
