package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// UsageRecordModel is the GORM model for the usage ledger
type UsageRecordModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;index:idx_usage_tenant_recorded;not null"`
	UsageType  string    `gorm:"type:varchar(50);not null"`
	Quantity   int64     `gorm:"not null"`
	RecordedAt time.Time `gorm:"index:idx_usage_tenant_recorded;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToEntity converts the model to a domain entity
func (m *UsageRecordModel) ToEntity() *billing.UsageRecord {
	return &billing.UsageRecord{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:   m.TenantID,
		UsageType:  billing.UsageType(m.UsageType),
		Quantity:   m.Quantity,
		RecordedAt: m.RecordedAt,
	}
}

// UsageRecordModelFromEntity creates a model from a domain entity
func UsageRecordModelFromEntity(e *billing.UsageRecord) *UsageRecordModel {
	return &UsageRecordModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		UsageType:  string(e.UsageType),
		Quantity:   e.Quantity,
		RecordedAt: e.RecordedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// UsageRecordRepository implements billing.UsageRecordRepository on GORM.
// The ledger is append-only; rows are never updated or deleted.
type UsageRecordRepository struct {
	db       *gorm.DB
	tenantDB *tenant.TenantDB
}

// NewUsageRecordRepository creates a new usage record repository
func NewUsageRecordRepository(db *gorm.DB) *UsageRecordRepository {
	return &UsageRecordRepository{
		db:       db,
		tenantDB: tenant.NewTenantDB(db),
	}
}

// Append persists a new usage record
func (r *UsageRecordRepository) Append(ctx context.Context, record *billing.UsageRecord) error {
	model := UsageRecordModelFromEntity(record)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// SumSince returns the total recorded quantity for a tenant since the
// given time
func (r *UsageRecordRepository) SumSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var total *int64
	err := r.tenantDB.WithTenant(tenantID).
		WithContext(ctx).
		Model(&UsageRecordModel{}).
		Select("SUM(quantity)").
		Where("recorded_at >= ?", since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
