package database

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/utils"
	"gorm.io/gorm"
)

// SeedDemoData fills an empty catalog with a few dishes and a welcome coupon.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Food{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	foods := []models.Food{
		{Name: "Pizza", Description: "Wood-fired margherita", Price: decimal.NewFromInt(50),
			Images: []models.Image{{URL: "/static/img/pizza.jpeg"}}},
		{Name: "Sushi", Description: "Salmon nigiri set", Price: decimal.NewFromInt(100),
			Images: []models.Image{{URL: "/static/img/sushi.jpeg"}}},
		{Name: "Taco", Description: "Beef taco with salsa", Price: decimal.NewFromInt(40), Discount: 10,
			Images: []models.Image{{URL: "/static/img/taco.jpeg"}}},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&foods).Error; err != nil {
			return err
		}

		coupon := models.Coupon{
			Code:     "WELCOME10",
			Value:    decimal.NewFromInt(10),
			IsActive: true,
			Start:    time.Now(),
		}
		if err := tx.Where(models.Coupon{Code: coupon.Code}).FirstOrCreate(&coupon).Error; err != nil {
			return err
		}

		utils.InfoLogger.Printf("Seeded %d demo foods and coupon %s", len(foods), coupon)
		return nil
	})
}
