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

// CheckoutSessionModel is the GORM model for pending purchase intents
type CheckoutSessionModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Email           string    `gorm:"type:varchar(255);not null"`
	ModuleSlugs     []byte    `gorm:"type:jsonb;default:'[]'"`
	SeatLimit       int       `gorm:"not null;default:0"`
	UsageQuota      int64     `gorm:"not null;default:0"`
	BillingInterval string    `gorm:"type:varchar(10);not null"`
	ExpiresAt       time.Time `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (CheckoutSessionModel) TableName() string {
	return "checkout_sessions"
}

// ToEntity converts the model to a domain entity
func (m *CheckoutSessionModel) ToEntity() *billing.CheckoutSession {
	var slugs []string
	if len(m.ModuleSlugs) > 0 {
		_ = json.Unmarshal(m.ModuleSlugs, &slugs)
	}

	return &billing.CheckoutSession{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		SessionID:       m.SessionID,
		Email:           m.Email,
		ModuleSlugs:     slugs,
		SeatLimit:       m.SeatLimit,
		UsageQuota:      m.UsageQuota,
		BillingInterval: billing.BillingInterval(m.BillingInterval),
		ExpiresAt:       m.ExpiresAt,
	}
}

// CheckoutSessionModelFromEntity creates a model from a domain entity
func CheckoutSessionModelFromEntity(e *billing.CheckoutSession) *CheckoutSessionModel {
	slugs, _ := json.Marshal(e.ModuleSlugs)
	if e.ModuleSlugs == nil {
		slugs = []byte("[]")
	}

	return &CheckoutSessionModel{
		ID:              e.ID,
		SessionID:       e.SessionID,
		Email:           e.Email,
		ModuleSlugs:     slugs,
		SeatLimit:       e.SeatLimit,
		UsageQuota:      e.UsageQuota,
		BillingInterval: string(e.BillingInterval),
		ExpiresAt:       e.ExpiresAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// CheckoutSessionRepository implements billing.CheckoutSessionRepository on GORM
type CheckoutSessionRepository struct {
	db *gorm.DB
}

// NewCheckoutSessionRepository creates a new checkout session repository
func NewCheckoutSessionRepository(db *gorm.DB) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{db: db}
}

// FindBySessionID retrieves a session by its provider session reference
func (r *CheckoutSessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	var model CheckoutSessionModel
	if err := dbFromContext(ctx, r.db).First(&model, "session_id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a session
func (r *CheckoutSessionRepository) Save(ctx context.Context, session *billing.CheckoutSession) error {
	model := CheckoutSessionModelFromEntity(session)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Delete removes a session by its provider session reference
func (r *CheckoutSessionRepository) Delete(ctx context.Context, sessionID string) error {
	return dbFromContext(ctx, r.db).Delete(&CheckoutSessionModel{}, "session_id = ?", sessionID).Error
}
