package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/utils"
	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CreateReview adds a rating for a food. A user may review the same food more than once.
func (s *ReviewService) CreateReview(ctx context.Context, userID, foodID uuid.UUID, rating int, comment string) (*models.Review, error) {
	review := &models.Review{
		UserID:  userID,
		FoodID:  foodID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	if err := review.Validate(); err != nil {
		return nil, fromValidator(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Food{}, foodID, "food"); err != nil {
			return err
		}
		return tx.Omit("User", "Replies").Create(review).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Review %s created on food %s by user %s", review.ID, foodID, userID)
	return review, nil
}

// CreateReply answers a review. The review must belong to foodID.
func (s *ReviewService) CreateReply(ctx context.Context, userID, foodID, reviewID uuid.UUID, content string) (*models.Reply, error) {
	reply := &models.Reply{
		ReviewID: reviewID,
		UserID:   userID,
		Content:  strings.TrimSpace(content),
	}
	if err := reply.Validate(); err != nil {
		return nil, fromValidator(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("id = ? AND food_id = ?", reviewID, foodID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("review", reviewID)
			}
			return err
		}
		return tx.Omit("User").Create(reply).Error
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// DeleteReview removes a review and its replies. Only the author or an admin may do so.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("review", reviewID)
			}
			return err
		}
		if err := authorize(tx, userID, review.UserID); err != nil {
			return fmt.Errorf("review %s: %w", reviewID, err)
		}

		if err := tx.Where("review_id = ?", review.ID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&review).Error
	})
}

func (s *ReviewService) DeleteReply(ctx context.Context, userID, replyID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.First(&reply, "id = ?", replyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("reply", replyID)
			}
			return err
		}
		if err := authorize(tx, userID, reply.UserID); err != nil {
			return fmt.Errorf("reply %s: %w", replyID, err)
		}
		return tx.Delete(&reply).Error
	})
}

// authorize allows the owner, or any admin.
func authorize(tx *gorm.DB, userID, ownerID uuid.UUID) error {
	if userID == ownerID {
		return nil
	}

	var user models.User
	if err := tx.Select("id", "is_admin").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !user.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func exists(tx *gorm.DB, model interface{}, id uuid.UUID, what string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound(what, id)
	}
	return nil
}
