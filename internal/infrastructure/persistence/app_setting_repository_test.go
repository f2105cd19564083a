package persistence

import (
	"context"
	"testing"

	"github.com/nexora/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAppSettingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&AppSettingModel{}))
	return db
}

func TestAppSettingRepository_GetAndSet(t *testing.T) {
	db := setupAppSettingTestDB(t)
	repo := NewAppSettingRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "billing.usage_meter_id")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "billing.usage_meter_id", "mtr_1"))

	value, err := repo.Get(ctx, "billing.usage_meter_id")
	require.NoError(t, err)
	assert.Equal(t, "mtr_1", value)
}

func TestAppSettingRepository_Set_Upserts(t *testing.T) {
	db := setupAppSettingTestDB(t)
	repo := NewAppSettingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "billing.seat_monthly_price_id", "price_1"))
	require.NoError(t, repo.Set(ctx, "billing.seat_monthly_price_id", "price_2"))

	value, err := repo.Get(ctx, "billing.seat_monthly_price_id")
	require.NoError(t, err)
	assert.Equal(t, "price_2", value)

	var count int64
	require.NoError(t, db.Model(&AppSettingModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
