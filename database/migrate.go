package database

import (
	"fmt"

	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/utils"
	"gorm.io/gorm"
)

// Status names the order lifecycle depends on, seeded with their descriptions.
var defaultStatuses = []models.Status{
	{Name: "cart", Description: "Items collected but not yet ordered"},
	{Name: "processing", Description: "Order placed, waiting to be prepared"},
	{Name: "shipped", Description: "Order handed over for delivery"},
	{Name: "delivered", Description: "Order received by the customer"},
	{Name: "cancelled", Description: "Order cancelled before fulfillment"},
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Food{},
		&models.Image{},
		&models.Review{},
		&models.Reply{},
		&models.Coupon{},
		&models.Status{},
		&models.Bill{},
		&models.Item{},
	)
	if err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}

	if err := SeedStatuses(db); err != nil {
		return err
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

func SeedStatuses(db *gorm.DB) error {
	for _, s := range defaultStatuses {
		var status models.Status
		if err := db.Where(models.Status{Name: s.Name}).
			Attrs(models.Status{Description: s.Description}).
			FirstOrCreate(&status).Error; err != nil {
			return fmt.Errorf("failed to seed status %s: %w", s.Name, err)
		}
	}
	return nil
}
