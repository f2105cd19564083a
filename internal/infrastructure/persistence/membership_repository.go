package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// TenantMembershipModel is the GORM model for tenant memberships
type TenantMembershipModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_memberships_tenant_user;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_memberships_tenant_user;not null"`
	RoleID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (TenantMembershipModel) TableName() string {
	return "tenant_memberships"
}

// ToEntity converts the model to a domain entity
func (m *TenantMembershipModel) ToEntity() *tenancy.TenantMembership {
	return &tenancy.TenantMembership{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID: m.TenantID,
		UserID:   m.UserID,
		RoleID:   m.RoleID,
	}
}

// TenantMembershipModelFromEntity creates a model from a domain entity
func TenantMembershipModelFromEntity(e *tenancy.TenantMembership) *TenantMembershipModel {
	return &TenantMembershipModel{
		ID:        e.ID,
		TenantID:  e.TenantID,
		UserID:    e.UserID,
		RoleID:    e.RoleID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// MembershipRepository implements tenancy.MembershipRepository on GORM
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// FindByID retrieves a membership by ID
func (r *MembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.TenantMembership, error) {
	var model TenantMembershipModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByTenantAndUser retrieves the membership linking a user to a tenant
func (r *MembershipRepository) FindByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*tenancy.TenantMembership, error) {
	var model TenantMembershipModel
	err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// CountByTenant returns the live membership count for a tenant
func (r *MembershipRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).
		Model(&TenantMembershipModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// CountByTenantAndRole returns how many memberships hold a role on a tenant
func (r *MembershipRepository) CountByTenantAndRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).
		Model(&TenantMembershipModel{}).
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Count(&count).Error
	return count, err
}

// Save creates or updates a membership
func (r *MembershipRepository) Save(ctx context.Context, membership *tenancy.TenantMembership) error {
	model := TenantMembershipModelFromEntity(membership)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Delete removes a membership
func (r *MembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&TenantMembershipModel{}, "id = ?", id).Error
}
