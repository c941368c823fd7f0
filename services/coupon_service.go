package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yeremiapane/food-store/models"
	"gorm.io/gorm"
)

type CouponService struct {
	db *gorm.DB
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// CouponQuote is what a checkout page needs to show before the order is placed.
type CouponQuote struct {
	Coupon models.Coupon `json:"coupon"`
	Usable bool          `json:"usable"`
}

// Lookup finds a coupon by code and reports whether it can be redeemed on today.
func (s *CouponService) Lookup(ctx context.Context, code string, today time.Time) (*CouponQuote, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, newValidationError("code", "is required")
	}

	var coupon models.Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("coupon", code)
		}
		return nil, err
	}
	return &CouponQuote{Coupon: coupon, Usable: coupon.IsValid(today)}, nil
}

// findUsableCoupon returns nil when code is unknown or not redeemable today.
func findUsableCoupon(tx *gorm.DB, code string, today time.Time) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !coupon.IsValid(today) {
		return nil, nil
	}
	return &coupon, nil
}
