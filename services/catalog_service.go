package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/models"
	"gorm.io/gorm"
)

// likeEscaper makes % and _ match literally. '!' is the escape character because a
// backslash literal is read differently by MySQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// FoodDetail is a food with its reviews and the aggregates shown next to them.
type FoodDetail struct {
	Food          models.Food `json:"food"`
	ReviewCount   int         `json:"review_count"`
	AverageRating float64     `json:"average_rating"`
}

// ListFoods pages through the catalog. A non-positive size returns every food.
func (s *CatalogService) ListFoods(ctx context.Context, page, size int) ([]models.Food, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Food{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Preload("Images").Order("name asc")
	if size > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * size).Limit(size)
	}

	var foods []models.Food
	if err := query.Find(&foods).Error; err != nil {
		return nil, 0, err
	}
	return foods, total, nil
}

func (s *CatalogService) GetFood(ctx context.Context, id uuid.UUID) (*FoodDetail, error) {
	var food models.Food
	err := s.db.WithContext(ctx).
		Preload("Images").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("Reviews.User").
		Preload("Reviews.Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Reviews.Replies.User").
		First(&food, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("food", id)
		}
		return nil, err
	}

	detail := &FoodDetail{Food: food, ReviewCount: len(food.Reviews)}
	if detail.ReviewCount > 0 {
		sum := 0
		for _, r := range food.Reviews {
			sum += r.Rating
		}
		detail.AverageRating = float64(sum) / float64(detail.ReviewCount)
	}
	return detail, nil
}

// SearchFoods matches any whitespace-separated keyword against name or description,
// ignoring case.
func (s *CatalogService) SearchFoods(ctx context.Context, query string) ([]models.Food, error) {
	db := s.db.WithContext(ctx).Preload("Images").Order("name asc")

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) > 0 {
		clauses := make([]string, 0, len(terms))
		args := make([]interface{}, 0, len(terms)*2)
		for _, term := range terms {
			pattern := "%" + likeEscaper.Replace(term) + "%"
			clauses = append(clauses, "LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'")
			args = append(args, pattern, pattern)
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}

	var foods []models.Food
	if err := db.Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}
