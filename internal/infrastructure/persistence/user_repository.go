package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name            string     `gorm:"type:varchar(255);not null"`
	Email           string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    *string    `gorm:"type:varchar(255)"`
	EmailVerifiedAt *time.Time `gorm:""`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the model to a domain entity
func (m *UserModel) ToEntity() *tenancy.User {
	return &tenancy.User{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:            m.Name,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		EmailVerifiedAt: m.EmailVerifiedAt,
	}
}

// UserModelFromEntity creates a model from a domain entity
func UserModelFromEntity(e *tenancy.User) *UserModel {
	return &UserModel{
		ID:              e.ID,
		Name:            e.Name,
		Email:           strings.ToLower(e.Email),
		PasswordHash:    e.PasswordHash,
		EmailVerifiedAt: e.EmailVerifiedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// UserRepository implements tenancy.UserRepository on GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.User, error) {
	var model UserModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*tenancy.User, error) {
	var model UserModel
	if err := dbFromContext(ctx, r.db).First(&model, "email = ?", strings.ToLower(email)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// EmailExists reports whether a user with the given email exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).Model(&UserModel{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a user
func (r *UserRepository) Save(ctx context.Context, user *tenancy.User) error {
	model := UserModelFromEntity(user)
	return dbFromContext(ctx, r.db).Save(model).Error
}
