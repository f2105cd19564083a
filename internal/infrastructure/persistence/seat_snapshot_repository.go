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

// SeatSnapshotModel is the GORM model for the seat count ledger
type SeatSnapshotModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;index:idx_seats_tenant_recorded;not null"`
	SeatCount  int64     `gorm:"not null"`
	RecordedAt time.Time `gorm:"index:idx_seats_tenant_recorded;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SeatSnapshotModel) TableName() string {
	return "seat_snapshots"
}

// ToEntity converts the model to a domain entity
func (m *SeatSnapshotModel) ToEntity() *billing.SeatSnapshot {
	return &billing.SeatSnapshot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:   m.TenantID,
		SeatCount:  m.SeatCount,
		RecordedAt: m.RecordedAt,
	}
}

// SeatSnapshotModelFromEntity creates a model from a domain entity
func SeatSnapshotModelFromEntity(e *billing.SeatSnapshot) *SeatSnapshotModel {
	return &SeatSnapshotModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		SeatCount:  e.SeatCount,
		RecordedAt: e.RecordedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// SeatSnapshotRepository implements billing.SeatSnapshotRepository on GORM.
// Snapshots are append-only so concurrent membership changes each land
// their own row instead of racing on an upsert.
type SeatSnapshotRepository struct {
	db       *gorm.DB
	tenantDB *tenant.TenantDB
}

// NewSeatSnapshotRepository creates a new seat snapshot repository
func NewSeatSnapshotRepository(db *gorm.DB) *SeatSnapshotRepository {
	return &SeatSnapshotRepository{
		db:       db,
		tenantDB: tenant.NewTenantDB(db),
	}
}

// Append persists a new seat snapshot
func (r *SeatSnapshotRepository) Append(ctx context.Context, snapshot *billing.SeatSnapshot) error {
	model := SeatSnapshotModelFromEntity(snapshot)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// MaxSince returns the highest snapshot seat count for a tenant since the
// given time, and whether any snapshot landed in the window
func (r *SeatSnapshotRepository) MaxSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, bool, error) {
	var peak *int64
	err := r.tenantDB.WithTenant(tenantID).
		WithContext(ctx).
		Model(&SeatSnapshotModel{}).
		Select("MAX(seat_count)").
		Where("recorded_at >= ?", since).
		Scan(&peak).Error
	if err != nil {
		return 0, false, err
	}
	if peak == nil {
		return 0, false, nil
	}
	return *peak, true, nil
}
