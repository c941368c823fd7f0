package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/models"
	"gorm.io/gorm"
)

type WishlistService struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

// Add is a no-op when the food is already on the list.
func (s *WishlistService) Add(ctx context.Context, userID, foodID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, food, err := wishlistPair(tx, userID, foodID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Table("wishlists").
			Where("user_id = ? AND food_id = ?", user.ID, food.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Model(user).Association("Wishlist").Append(food)
	})
}

// Remove is a no-op when the food is not on the list.
func (s *WishlistService) Remove(ctx context.Context, userID, foodID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, food, err := wishlistPair(tx, userID, foodID)
		if err != nil {
			return err
		}
		return tx.Model(user).Association("Wishlist").Delete(food)
	})
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.Food, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.User{}, userID, "user"); err != nil {
		return nil, err
	}

	var foods []models.Food
	err := db.Model(&models.User{ID: userID}).
		Preload("Images").
		Order("name asc").
		Association("Wishlist").
		Find(&foods)
	return foods, err
}

func wishlistPair(tx *gorm.DB, userID, foodID uuid.UUID) (*models.User, *models.Food, error) {
	if err := exists(tx, &models.User{}, userID, "user"); err != nil {
		return nil, nil, err
	}
	if err := exists(tx, &models.Food{}, foodID, "food"); err != nil {
		return nil, nil, err
	}
	return &models.User{ID: userID}, &models.Food{ID: foodID}, nil
}
