package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-store/config"
	"github.com/yeremiapane/food-store/database"
	"github.com/yeremiapane/food-store/models"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		Password:  "x",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "5550001",
		Address:   "12 Analytical Way",
		City:      "London",
		Country:   "UK",
		Zip:       "N1",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createFood(t *testing.T, db *gorm.DB, name string, price int64) models.Food {
	t.Helper()
	food := models.Food{
		Name:        name,
		Description: name + " from the kitchen",
		Price:       decimal.NewFromInt(price),
	}
	require.NoError(t, db.Create(&food).Error)
	return food
}

func createCoupon(t *testing.T, db *gorm.DB, code string, value int64, start time.Time, end *time.Time) models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		Code:     code,
		Value:    decimal.NewFromInt(value),
		IsActive: true,
		Start:    start,
		End:      end,
	}
	require.NoError(t, db.Create(&coupon).Error)
	return coupon
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
