package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppSettingModel is the GORM model for instance-level key/value settings
type AppSettingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (AppSettingModel) TableName() string {
	return "app_settings"
}

// AppSettingRepository implements billing.AppSettingRepository on GORM
type AppSettingRepository struct {
	db *gorm.DB
}

// NewAppSettingRepository creates a new app setting repository
func NewAppSettingRepository(db *gorm.DB) *AppSettingRepository {
	return &AppSettingRepository{db: db}
}

// Get returns the value stored under a key, or shared.ErrNotFound
func (r *AppSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var model AppSettingModel
	if err := dbFromContext(ctx, r.db).First(&model, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return model.Value, nil
}

// Set upserts a key/value pair
func (r *AppSettingRepository) Set(ctx context.Context, key, value string) error {
	model := &AppSettingModel{
		ID:    uuid.New(),
		Key:   key,
		Value: value,
	}
	return dbFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(model).Error
}
