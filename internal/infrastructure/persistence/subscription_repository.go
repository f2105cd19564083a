package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TenantSubscriptionModel is the GORM model for tenant subscriptions
type TenantSubscriptionModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID             uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	StripeSubscriptionID string     `gorm:"type:varchar(255);index"`
	Status               string     `gorm:"type:varchar(20);not null"`
	BillingInterval      string     `gorm:"type:varchar(10);not null"`
	ModuleSlugs          []byte     `gorm:"type:jsonb;default:'[]'"`
	SeatLimit            int        `gorm:"not null;default:0"`
	SeatStripePriceID    string     `gorm:"type:varchar(255)"`
	UsageQuota           int64      `gorm:"not null;default:0"`
	UsageStripePriceID   string     `gorm:"type:varchar(255)"`
	TrialEndsAt          *time.Time `gorm:""`
	ReadOnlyEndsAt       *time.Time `gorm:"index"`
	CurrentPeriodEnd     *time.Time `gorm:""`
	CreatedAt            time.Time  `gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (TenantSubscriptionModel) TableName() string {
	return "tenant_subscriptions"
}

// ToEntity converts the model to a domain entity
func (m *TenantSubscriptionModel) ToEntity() *billing.TenantSubscription {
	var slugs []string
	if len(m.ModuleSlugs) > 0 {
		_ = json.Unmarshal(m.ModuleSlugs, &slugs)
	}

	return &billing.TenantSubscription{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:             m.TenantID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		Status:               billing.SubscriptionStatus(m.Status),
		BillingInterval:      billing.BillingInterval(m.BillingInterval),
		ModuleSlugs:          slugs,
		SeatLimit:            m.SeatLimit,
		SeatStripePriceID:    m.SeatStripePriceID,
		UsageQuota:           m.UsageQuota,
		UsageStripePriceID:   m.UsageStripePriceID,
		TrialEndsAt:          m.TrialEndsAt,
		ReadOnlyEndsAt:       m.ReadOnlyEndsAt,
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
	}
}

// TenantSubscriptionModelFromEntity creates a model from a domain entity
func TenantSubscriptionModelFromEntity(e *billing.TenantSubscription) *TenantSubscriptionModel {
	slugs, _ := json.Marshal(e.ModuleSlugs)
	if e.ModuleSlugs == nil {
		slugs = []byte("[]")
	}

	return &TenantSubscriptionModel{
		ID:                   e.ID,
		TenantID:             e.TenantID,
		StripeSubscriptionID: e.StripeSubscriptionID,
		Status:               string(e.Status),
		BillingInterval:      string(e.BillingInterval),
		ModuleSlugs:          slugs,
		SeatLimit:            e.SeatLimit,
		SeatStripePriceID:    e.SeatStripePriceID,
		UsageQuota:           e.UsageQuota,
		UsageStripePriceID:   e.UsageStripePriceID,
		TrialEndsAt:          e.TrialEndsAt,
		ReadOnlyEndsAt:       e.ReadOnlyEndsAt,
		CurrentPeriodEnd:     e.CurrentPeriodEnd,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// SubscriptionRepository implements billing.SubscriptionRepository on GORM
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByID retrieves a subscription by ID
func (r *SubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.TenantSubscription, error) {
	var model TenantSubscriptionModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByTenantID retrieves the subscription owned by a tenant
func (r *SubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*billing.TenantSubscription, error) {
	var model TenantSubscriptionModel
	if err := dbFromContext(ctx, r.db).First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByStripeSubscriptionID retrieves a subscription by its provider reference
func (r *SubscriptionRepository) FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*billing.TenantSubscription, error) {
	var model TenantSubscriptionModel
	err := dbFromContext(ctx, r.db).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindExpiredReadOnly retrieves read-only subscriptions whose grace window
// ended at or before the given time
func (r *SubscriptionRepository) FindExpiredReadOnly(ctx context.Context, now time.Time) ([]*billing.TenantSubscription, error) {
	var models []TenantSubscriptionModel
	err := dbFromContext(ctx, r.db).
		Where("status = ?", string(billing.StatusReadOnly)).
		Where("read_only_ends_at IS NOT NULL AND read_only_ends_at <= ?", now).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	subs := make([]*billing.TenantSubscription, len(models))
	for i := range models {
		subs[i] = models[i].ToEntity()
	}
	return subs, nil
}

// Save creates or updates a subscription
func (r *SubscriptionRepository) Save(ctx context.Context, subscription *billing.TenantSubscription) error {
	model := TenantSubscriptionModelFromEntity(subscription)
	return dbFromContext(ctx, r.db).Save(model).Error
}
